package importer

import (
	"context"
	"fmt"
	"strings"

	"eventmigrate/backend/internal/models"
	"eventmigrate/backend/internal/source"
)

// questionRef remembers a mapped question for answer import. Options maps
// the remote option id (or gender key) to the target option.
type questionRef struct {
	ID      int64
	Type    string
	Gender  bool
	Options map[string]optionRef
}

type optionRef struct {
	ID     int64
	Answer string
}

// questionType maps a remote field type to a target question type. ok is
// false for types that are not migrated. portrait marks photo uploads.
func questionType(fieldType string) (qType string, portrait bool, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(fieldType)) {
	case source.FieldString, source.FieldEmail, source.FieldURL:
		return models.QuestionTypeString, false, true
	case source.FieldText:
		return models.QuestionTypeText, false, true
	case source.FieldDate:
		return models.QuestionTypeDate, false, true
	case source.FieldDateTime:
		return models.QuestionTypeDateTime, false, true
	case source.FieldRadio, source.FieldDropdown, source.FieldGender:
		return models.QuestionTypeChoice, false, true
	case source.FieldCheckbox:
		return models.QuestionTypeBoolean, false, true
	case source.FieldPhoto:
		return models.QuestionTypeFile, true, true
	case source.FieldFile:
		return models.QuestionTypeFile, false, true
	case source.FieldPhone:
		return models.QuestionTypePhone, false, true
	case source.FieldCountry:
		return models.QuestionTypeCountry, false, true
	default:
		return "", false, false
	}
}

func skippedFieldType(fieldType string) bool {
	switch strings.ToUpper(strings.TrimSpace(fieldType)) {
	case source.FieldSeparator, source.FieldProduct, source.FieldLegal:
		return true
	}
	return false
}

type genderOption struct {
	key    string
	answer models.LocalizedString
}

var genderOptions = []genderOption{
	{"male", models.LocalizedString{"de": "männlich", "en": "male"}},
	{"female", models.LocalizedString{"de": "weiblich", "en": "female"}},
	{"other", models.LocalizedString{"de": "divers", "en": "other"}},
}

func (r *eventRun) importQuestions(ctx context.Context) error {
	fields, err := r.remote.UserDataFields(ctx, r.remoteID)
	if err != nil {
		return err
	}
	itemIDs, err := r.tx.ListAdmissionItemIDs(ctx, r.event.ID)
	if err != nil {
		return fmt.Errorf("list admission items: %w", err)
	}

	imported := 0
	for i, field := range fields {
		if skippedFieldType(field.Type) {
			continue
		}
		qType, portrait, ok := questionType(field.Type)
		if !ok {
			r.logger.Warn("import_question_type_unknown", "field_id", field.ID, "type", field.Type)
			continue
		}
		question, err := r.tx.UpsertQuestion(ctx, models.Question{
			EventID:           r.event.ID,
			Identifier:        questionIdentifier(field.ID),
			Question:          models.LocalizedString{r.locale: strings.TrimSpace(field.Title)},
			HelpText:          r.plainText(field.HelpText),
			Type:              qType,
			Required:          field.Mandatory,
			Position:          i,
			ValidFilePortrait: portrait,
			ItemIDs:           itemIDs,
		})
		if err != nil {
			return fmt.Errorf("save question for field %d: %w", field.ID, err)
		}

		ref := &questionRef{ID: question.ID, Type: qType, Options: make(map[string]optionRef)}
		switch strings.ToUpper(field.Type) {
		case source.FieldGender:
			ref.Gender = true
			for pos, g := range genderOptions {
				answer := localizedChoice(g.answer, r.locale)
				option, err := r.tx.UpsertQuestionOption(ctx, models.QuestionOption{
					QuestionID: question.ID,
					Identifier: question.Identifier + ":" + g.key,
					Answer:     answer,
					Position:   pos,
				})
				if err != nil {
					return fmt.Errorf("save gender option %s: %w", g.key, err)
				}
				ref.Options[g.key] = optionRef{ID: option.ID, Answer: answer.In(r.locale)}
			}
		case source.FieldRadio, source.FieldDropdown:
			for pos, opt := range field.Options {
				answer := models.LocalizedString{r.locale: strings.TrimSpace(opt.Value)}
				option, err := r.tx.UpsertQuestionOption(ctx, models.QuestionOption{
					QuestionID: question.ID,
					Identifier: question.Identifier + ":" + extID(opt.ID),
					Answer:     answer,
					Position:   pos,
				})
				if err != nil {
					return fmt.Errorf("save option %d: %w", opt.ID, err)
				}
				ref.Options[extID(opt.ID)] = optionRef{ID: option.ID, Answer: answer.In(r.locale)}
			}
		}
		keep := make([]string, 0, len(ref.Options))
		for key := range ref.Options {
			keep = append(keep, question.Identifier+":"+key)
		}
		removed, err := r.tx.DeleteQuestionOptionsExcept(ctx, question.ID, keep)
		if err != nil {
			return fmt.Errorf("prune options of field %d: %w", field.ID, err)
		}
		if removed > 0 {
			r.logger.Info("import_question_options_pruned", "field_id", field.ID, "count", removed)
		}
		r.questions[field.ID] = ref
		imported++
	}

	r.logger.Info("import_questions_done", "fields", len(fields), "questions", imported)
	return nil
}

func questionIdentifier(fieldID int64) string {
	return "source:" + extID(fieldID)
}

func localizedChoice(s models.LocalizedString, locale string) models.LocalizedString {
	if v, ok := s[locale]; ok {
		return models.LocalizedString{locale: v}
	}
	return models.LocalizedString{locale: s["en"]}
}

func (r *eventRun) plainText(raw string) models.LocalizedString {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.LocalizedString{}
	}
	return models.LocalizedString{r.locale: raw}
}

// genderKey normalizes a remote gender code. Unknown non-empty codes map to
// "other"; empty codes map to "".
func genderKey(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return ""
	case "m", "male", "mr", "herr", "männlich":
		return "male"
	case "f", "w", "female", "mrs", "ms", "frau", "weiblich":
		return "female"
	default:
		return "other"
	}
}
