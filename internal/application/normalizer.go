package application

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/realyou/internal/domain/model"
)

// Normalize extracts the facts selected by mode from a lookup result. It
// never fails on missing or oddly typed fields; they are skipped. The only
// error is an unknown mode.
func Normalize(data model.Value, mode model.InfoMode) (model.Facts, error) {
	switch mode {
	case model.InfoModeScore:
		return model.Facts{Mode: mode, Verifier: firstVerifier(data)}, nil
	case model.InfoModeAll:
		return collectAll(data), nil
	default:
		return model.Facts{}, fmt.Errorf("unknown info mode %q", mode)
	}
}

// firstVerifier returns the verifier of the first top-level object that has
// a "verifier" field.
func firstVerifier(data model.Value) *model.Verifier {
	for _, item := range data.Items() {
		if v, ok := item.Get("verifier"); ok {
			return toVerifier(v)
		}
	}
	return nil
}

// collectAll walks every object-valued field of every top-level object, in
// document order, and collects whatever identity attributes it carries.
// Nothing is deduplicated.
func collectAll(data model.Value) model.Facts {
	facts := model.Facts{
		Mode:        model.InfoModeAll,
		Names:       []string{},
		Emails:      []string{},
		LinkedInIDs: []string{},
		Birthdays:   []string{},
		FacebookIDs: []string{},
	}

	for _, item := range data.Items() {
		for _, field := range item.Fields() {
			record := field.Value
			if !record.IsObject() {
				continue
			}

			if name, ok := textField(record, "name"); ok {
				facts.Names = append(facts.Names, name)
			}

			if emails, ok := record.Get("emails"); ok {
				for _, e := range emails.Items() {
					if email, ok := textField(e, "email"); ok {
						facts.Emails = append(facts.Emails, email)
					}
				}
			}

			if profile, ok := record.Get("linkedinPubProfileUrl"); ok {
				if id, ok := textField(profile, "id"); ok {
					facts.LinkedInIDs = append(facts.LinkedInIDs, id)
				}
			}

			if birthday, ok := record.Get("birthday"); ok && birthday.IsObject() {
				facts.Birthdays = append(facts.Birthdays, formatBirthday(birthday))
			}

			if fb, ok := record.Get("facebookID"); ok {
				if sure, _ := boolField(fb, "sure"); sure {
					if id, ok := textField(fb, "id"); ok {
						facts.FacebookIDs = append(facts.FacebookIDs, id)
					}
				}
			}

			if field.Key == "verifier" {
				facts.Verifier = toVerifier(record)
			}
		}
	}

	return facts
}

func toVerifier(v model.Value) *model.Verifier {
	out := &model.Verifier{}
	if c, ok := textField(v, "finalClassification"); ok {
		out.Classification = c
	}
	if raw, ok := v.Get("score"); ok {
		if score, ok := raw.Float(); ok {
			out.Score = &score
		}
	}
	return out
}

// formatBirthday renders day/month/year from the formatted* fields. Missing
// parts render empty rather than dropping the birthday.
func formatBirthday(b model.Value) string {
	parts := make([]string, 0, 3)
	for _, key := range []string{"formattedDay", "formattedMonth", "formattedYear"} {
		s, _ := textField(b, key)
		parts = append(parts, s)
	}
	return strings.Join(parts, "/")
}

func textField(v model.Value, key string) (string, bool) {
	f, ok := v.Get(key)
	if !ok {
		return "", false
	}
	return f.Text()
}

func boolField(v model.Value, key string) (bool, bool) {
	f, ok := v.Get(key)
	if !ok {
		return false, false
	}
	return f.Bool()
}
