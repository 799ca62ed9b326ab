// Package forms validates user input field by field and assembles the
// request payload. Nothing reaches the network until Validate passes.
package forms

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Errors maps a field to its first failing message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// First returns the message of the first failing field in rule order.
func (e Errors) First(order []Rule) string {
	for _, r := range order {
		if m, ok := e[r.Field]; ok {
			return m
		}
	}
	for _, m := range e {
		return m
	}
	return ""
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Getter reads a field's current value.
type Getter func(field string) string

// Rule is one field definition. Checks run in order: Required, MinLen,
// Pattern, Check; the first failure wins.
type Rule struct {
	Field      string
	Required   string // message; empty means optional
	MinLen     int
	MinLenMsg  string
	Pattern    *regexp.Regexp
	PatternMsg string
	// Check sees the whole form; "" means ok.
	Check func(get Getter) string
	// When limits the rule to some form states (e.g. create only).
	When func(get Getter) bool
}

var (
	reEmail  = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	reMobile = regexp.MustCompile(`^[0-9+\-() ]+$`)
)

func validate(rules []Rule, get Getter) Errors {
	errs := Errors{}
	for _, r := range rules {
		if _, done := errs[r.Field]; done {
			continue
		}
		if r.When != nil && !r.When(get) {
			continue
		}
		v := strings.TrimSpace(get(r.Field))
		if v == "" {
			if r.Required != "" {
				errs[r.Field] = r.Required
			}
			continue
		}
		if r.MinLen > 0 && len([]rune(v)) < r.MinLen {
			errs[r.Field] = r.MinLenMsg
			continue
		}
		if r.Pattern != nil && !r.Pattern.MatchString(v) {
			errs[r.Field] = r.PatternMsg
			continue
		}
		if r.Check != nil {
			if m := r.Check(get); m != "" {
				errs[r.Field] = m
			}
		}
	}
	return errs
}

// submit validates, builds the payload and hands it to onSubmit.
func submit[T any](ctx context.Context, errs Errors, build func() (T, error), onSubmit func(context.Context, T) error) error {
	if err := errs.orNil(); err != nil {
		return err
	}
	payload, err := build()
	if err != nil {
		return err
	}
	return onSubmit(ctx, payload)
}

// common rule fragments

func emailRule(required bool) Rule {
	r := Rule{Field: "email", Pattern: reEmail, PatternMsg: "Invalid email address"}
	if required {
		r.Required = "Email is required"
	}
	return r
}

func passwordRule(field, required string) Rule {
	return Rule{Field: field, Required: required, MinLen: 6, MinLenMsg: "Password must be at least 6 characters"}
}

func fieldMap(m map[string]string) Getter {
	return func(f string) string { return m[f] }
}
