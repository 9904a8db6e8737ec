package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a trimmed copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.CompanyIdentifier = strings.TrimSpace(out.CompanyIdentifier)
	out.Client.BaseURL = strings.TrimRight(strings.TrimSpace(out.Client.BaseURL), "/")
	out.Output.Kind = strings.ToLower(strings.TrimSpace(out.Output.Kind))
	out.Logging.Level = strings.ToLower(strings.TrimSpace(out.Logging.Level))

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			res.addErr("%v", err)
			return out, res
		}
		for _, fe := range verrs {
			res.addErr("%s failed %q%s", fieldPath(fe), fe.Tag(), param(fe))
		}
	}

	if _, ok := out.PluginOptions.JobPosts["department"]; ok {
		res.addWarn("plugin_options.job_posts.department limits the full job list; postings outside it are dropped from every department")
	}
	if out.Client.PageSize == 0 {
		res.addWarn("client.page_size is 0; only the first page of each list is read")
	}
	if out.Output.Prune && out.Output.Kind != "sqlite" {
		res.addWarn("output.prune only applies to the sqlite output")
	}
	if out.Output.Kind == "sqlite" && out.Output.Path == "-" {
		res.addErr("output.path must be a file when output.kind=sqlite")
	}

	return out, res
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func param(fe validator.FieldError) string {
	if p := fe.Param(); p != "" {
		return " (" + p + ")"
	}
	return ""
}
