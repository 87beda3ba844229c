package server

import "github.com/go-playground/validator/v10"

var validate = validator.New()

type StoreConfigRequest struct {
	URLs    []string `json:"urls" validate:"omitempty,dive,url"`
	APIKeys struct {
		Firecrawl string `json:"firecrawl"`
	} `json:"apiKeys"`
}

func (r StoreConfigRequest) Validate() map[string]string {
	return validationErrors(validate.Struct(r))
}

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

func (r ChatRequest) Validate() map[string]string {
	return validationErrors(validate.Struct(r))
}

func validationErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}

	errs := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			errs[fe.Field()] = "is required"
		case "url":
			errs[fe.Field()] = "must be a valid URL"
		default:
			errs[fe.Field()] = "is invalid"
		}
	}
	return errs
}
