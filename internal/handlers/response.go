package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"taskflow-api/internal/auth"
	"taskflow-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

func init() {
	// Report binding failures under the JSON key rather than the Go field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	}
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func fieldMessage(fe validator.FieldError) string {
	name := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

// translateValidation converts binding errors into a ValidationError.
func translateValidation(errs validator.ValidationErrors) *services.ValidationError {
	verr := &services.ValidationError{}
	for _, fe := range errs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

// firstMessage picks the message of the alphabetically first field.
func firstMessage(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(fields[k]) > 0 {
			return fields[k][0]
		}
	}
	return "The given data was invalid."
}

func respondValidation(c *gin.Context, verr *services.ValidationError) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": firstMessage(verr.Fields),
		"errors":  verr.Fields,
	})
}

// respondError maps service errors onto status codes. Unknown errors are
// logged and reported as 500 without detail.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	var verr *services.ValidationError
	var ves validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		respondValidation(c, verr)
	case errors.As(err, &ves):
		respondValidation(c, translateValidation(ves))
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found."})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
	default:
		_ = c.Error(err)
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
	}
}

// bindJSON decodes and validates the body into obj. It writes the error
// response itself and reports whether the handler should continue.
// With allowEmpty, an empty body decodes as {}.
func bindJSON(c *gin.Context, log logrus.FieldLogger, obj any, allowEmpty bool) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return true
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		respondError(c, log, err)
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed JSON body."})
	return false
}
