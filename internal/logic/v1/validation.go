package v1

import "regexp"

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// validateSignUp returns a field error map, empty when the payload is valid.
func validateSignUp(req SignUpRequest) map[string]string {
	errs := map[string]string{}

	switch {
	case len(req.Username) < 3:
		errs["username"] = "Username must be at least 3 characters"
	case len(req.Username) > 20:
		errs["username"] = "Username must be at most 20 characters"
	case !usernameRe.MatchString(req.Username):
		errs["username"] = "Username may only contain letters, digits and underscores"
	}

	switch {
	case req.Email == "":
		errs["email"] = "Email is required"
	case !emailRe.MatchString(req.Email):
		errs["email"] = "Email format is invalid"
	}

	if len(req.Password) < 6 {
		errs["password"] = "Password must be at least 6 characters"
	}

	switch {
	case req.ConfirmPassword == "":
		errs["confirmPassword"] = "Password confirmation is required"
	case req.Password != req.ConfirmPassword:
		errs["confirmPassword"] = "Passwords do not match"
	}

	return errs
}

// validateSignIn returns a field error map, empty when the payload is valid.
func validateSignIn(req SignInRequest) map[string]string {
	errs := map[string]string{}
	if req.Email == "" {
		errs["email"] = "Email or username is required"
	}
	if req.Password == "" {
		errs["password"] = "Password is required"
	}
	return errs
}

// validateRecipe returns a field error map, empty when the input is valid.
func validateRecipe(in RecipeInput) map[string]string {
	errs := map[string]string{}
	if in.RecipeName == "" {
		errs["recipeName"] = "Recipe name is required"
	}
	if in.Description == "" {
		errs["description"] = "Description is required"
	}
	if in.Ingredients == "" {
		errs["ingredients"] = "Ingredients are required"
	}
	if in.Directions == "" {
		errs["directions"] = "Directions are required"
	}
	return errs
}
