package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so messages match the
// request body the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type AssignRequest struct {
	EmpCodes   []string `json:"empCodes" validate:"required,min=1,dive,required,max=64"`
	AssignedBy *string  `json:"assignedBy" validate:"omitempty,max=128"`
}

type RevokeRequest struct {
	EmpCodes  []string `json:"empCodes" validate:"required,min=1,dive,required,max=64"`
	RevokedBy *string  `json:"revokedBy" validate:"omitempty,max=128"`
	Reason    *string  `json:"reason" validate:"omitempty,max=1024"`
}

func (r *AssignRequest) Validate() error {
	r.EmpCodes = trimAll(r.EmpCodes)
	return validate.Struct(r)
}

func (r *RevokeRequest) Validate() error {
	r.EmpCodes = trimAll(r.EmpCodes)
	return validate.Struct(r)
}

// NormalizeEmpCodes trims codes, drops blanks and duplicates, keeping the
// order of first occurrence.
func NormalizeEmpCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func trimAll(codes []string) []string {
	if codes == nil {
		return nil
	}
	out := make([]string, len(codes))
	for i, code := range codes {
		out[i] = strings.TrimSpace(code)
	}
	return out
}

// ValidationMessage renders validator errors as "field: rule" pairs.
// Other errors are returned as is.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
