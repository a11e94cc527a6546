package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

func init() {
	binding.EnableDecoderDisallowUnknownFields = true

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(fmt.Sprintf("register notblank validator: %v", err))
		}
		if err := v.RegisterValidation("isbn_format", isbnFormat); err != nil {
			panic(fmt.Sprintf("register isbn_format validator: %v", err))
		}
	}
}

// fieldName reports fields by their JSON name, or query name for query structs.
func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

// isbnFormat accepts ISBN-10 and ISBN-13 shapes: 10 or 13 digits once
// hyphens and spaces are removed, ISBN-10 may end in X.
func isbnFormat(fl validator.FieldLevel) bool {
	raw := strings.NewReplacer("-", "", " ", "").Replace(fl.Field().String())
	switch len(raw) {
	case 10, 13:
	default:
		return false
	}
	for i, r := range raw {
		if unicode.IsDigit(r) {
			continue
		}
		if len(raw) == 10 && i == 9 && (r == 'X' || r == 'x') {
			continue
		}
		return false
	}
	return true
}

// bindJSON decodes and validates the request body, responding with 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondValidation(c, validationDetails(err, "body"))
		return false
	}
	return true
}

// bindQuery binds and validates query parameters, responding with 400 on failure.
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		respondValidation(c, validationDetails(err, "query"))
		return false
	}
	return true
}

// validationDetails flattens binding errors into field → rule pairs.
func validationDetails(err error, source string) map[string]string {
	details := map[string]string{}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = source
		}
		details[field] = "type"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		details[source] = "malformed JSON"
	case errors.Is(err, io.EOF):
		details[source] = "required"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		details[strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)] = "unknown"
	default:
		details[source] = err.Error()
	}
	return details
}

// pageQuery is the limit/offset pair shared by every listing.
type pageQuery struct {
	Limit  int `form:"limit,default=25" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

func (q pageQuery) meta(total int64) PageMeta {
	return PageMeta{Total: total, Limit: q.Limit, Offset: q.Offset}
}

// searchMeta is the list meta of searchable, sortable collections. Absent
// parameters are reported as null.
type searchMeta struct {
	PageMeta
	Q         *string `json:"q"`
	SortBy    *string `json:"sortBy"`
	SortOrder *string `json:"sortOrder"`
}

func (q pageQuery) searchMeta(total int64, search, sortBy, sortOrder string) searchMeta {
	return searchMeta{
		PageMeta:  q.meta(total),
		Q:         optionalString(search),
		SortBy:    optionalString(sortBy),
		SortOrder: optionalString(sortOrder),
	}
}
