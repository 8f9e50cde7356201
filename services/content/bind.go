package content

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"clinicfront/services/clinicapi"
)

// FileInput is an uploaded file handed over by the HTTP layer.
type FileInput struct {
	Filename string
	Reader   io.Reader
}

// FieldErrors maps field name to message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e[k])
	}
	return strings.Join(parts, "; ")
}

// Submission is a validated form ready to send.
type Submission struct {
	Payload   map[string]any
	Values    url.Values
	Files     []clinicapi.FilePart
	Multipart bool
}

// Form is the multipart body, or nil for JSON submissions.
func (s Submission) Form() *clinicapi.Form {
	if !s.Multipart {
		return nil
	}
	return &clinicapi.Form{Values: s.Values, Files: s.Files}
}

// Bind validates posted values against the resource and builds the API payload.
// Multipart is used for multipart resources and whenever a file was posted.
func Bind(res Resource, values url.Values, files map[string]FileInput, creating bool) (Submission, error) {
	sub := Submission{Payload: map[string]any{}, Values: url.Values{}}
	errs := FieldErrors{}

	for _, f := range res.Fields {
		if f.CreateOnly && !creating {
			continue
		}
		raw := strings.TrimSpace(values.Get(f.Name))

		switch f.Kind {
		case KindFile:
			if in, ok := files[f.Name]; ok && in.Reader != nil {
				sub.Files = append(sub.Files, clinicapi.FilePart{Field: f.Name, Filename: in.Filename, Reader: in.Reader})
			}
			continue
		case KindCheckbox:
			on := raw == "on" || raw == "true" || raw == "1"
			sub.Payload[f.Name] = on
			sub.Values.Set(f.Name, strconv.FormatBool(on))
			continue
		}

		if raw == "" {
			if f.Required {
				errs[f.Name] = fmt.Sprintf("%s is required", f.Label)
			}
			continue
		}

		switch f.Kind {
		case KindNumber:
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				errs[f.Name] = fmt.Sprintf("%s must be a number", f.Label)
				continue
			}
			sub.Payload[f.Name] = json.Number(raw)
		case KindSelect:
			if len(f.Options) > 0 && !hasOption(f.Options, raw) {
				errs[f.Name] = fmt.Sprintf("%s has an unknown value", f.Label)
				continue
			}
			sub.Payload[f.Name] = raw
		default:
			sub.Payload[f.Name] = raw
		}
		sub.Values.Set(f.Name, raw)
	}

	if len(errs) > 0 {
		return Submission{}, errs
	}
	sub.Multipart = res.Multipart || len(sub.Files) > 0
	return sub, nil
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

// FormValues flattens a record into input values for an edit form.
func FormValues(res Resource, rec clinicapi.Record) map[string]string {
	out := make(map[string]string, len(res.Fields))
	for _, f := range res.Fields {
		if f.Kind == KindFile || f.Kind == KindPassword {
			continue
		}
		v, ok := rec[f.Name]
		if !ok && f.Name == "category_id" {
			v, ok = rec["category"]
		}
		if !ok {
			continue
		}
		out[f.Name] = Display(v)
	}
	return out
}

// SubmittedValues keeps what the user typed so a failed form can be re-rendered.
func SubmittedValues(res Resource, values url.Values) map[string]string {
	out := make(map[string]string, len(res.Fields))
	for _, f := range res.Fields {
		if f.Kind == KindFile || f.Kind == KindPassword {
			continue
		}
		out[f.Name] = values.Get(f.Name)
	}
	return out
}

// Display renders an API value as text. Nested objects show their name or id.
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case map[string]any:
		for _, k := range []string{"id", "name", "title"} {
			if inner, ok := t[k]; ok {
				return Display(inner)
			}
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}
