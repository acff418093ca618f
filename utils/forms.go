package utils

import "github.com/gofiber/fiber/v2"

// AddError appends a message id to the errors of a form field. Templates
// range over the ids of each field.
func AddError(errs fiber.Map, field string, messageID string) fiber.Map {
	if errs == nil {
		errs = fiber.Map{}
	}

	list, _ := errs[field].([]string)
	errs[field] = append(list, messageID)

	return errs
}
