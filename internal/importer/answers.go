package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventmigrate/backend/internal/models"
	"eventmigrate/backend/internal/source"
)

func (r *eventRun) buildAnswers(ctx context.Context, values []source.UserDataValue) ([]models.QuestionAnswer, error) {
	out := make([]models.QuestionAnswer, 0, len(values))
	for _, value := range values {
		if value.Type != "" {
			if skippedFieldType(value.Type) {
				continue
			}
			if _, _, ok := questionType(value.Type); !ok {
				r.logger.Warn("import_answer_type_unknown", "field_id", value.UserDataID, "type", value.Type)
				continue
			}
		}
		ref, ok := r.questions[value.UserDataID]
		if !ok {
			continue
		}
		answer, ok, err := r.buildAnswer(ctx, ref, value)
		if err != nil {
			return nil, fmt.Errorf("answer to field %d: %w", value.UserDataID, err)
		}
		if ok {
			out = append(out, answer)
		}
	}
	return out, nil
}

// buildAnswer converts one filled-in field. ok is false for blank answers.
func (r *eventRun) buildAnswer(ctx context.Context, ref *questionRef, value source.UserDataValue) (models.QuestionAnswer, bool, error) {
	answer := models.QuestionAnswer{QuestionID: ref.ID}
	raw := strings.TrimSpace(value.Value)

	switch ref.Type {
	case models.QuestionTypeChoice:
		var option optionRef
		var found bool
		if ref.Gender {
			option, found = ref.Options[genderKey(raw)]
		} else if value.OptionID != nil {
			option, found = ref.Options[extID(*value.OptionID)]
		}
		if found {
			answer.Answer = option.Answer
			answer.OptionIDs = []int64{option.ID}
			return answer, true, nil
		}
		if raw == "" {
			return answer, false, nil
		}
		answer.Answer = raw
		return answer, true, nil

	case models.QuestionTypeBoolean:
		if raw == "" && len(value.Values) == 0 {
			return answer, false, nil
		}
		if truthy(raw) || (raw == "" && len(value.Values) > 0) {
			answer.Answer = "True"
		} else {
			answer.Answer = "False"
		}
		return answer, true, nil

	case models.QuestionTypeFile:
		fileURL := firstNonEmpty(value.FileURL, raw)
		if fileURL == "" {
			return answer, false, nil
		}
		hosted, err := r.rehost(ctx, fileURL, "answer")
		if err != nil {
			return answer, false, err
		}
		answer.Answer = "file://" + hosted
		answer.File = hosted
		return answer, true, nil

	case models.QuestionTypeDate:
		if raw == "" {
			return answer, false, nil
		}
		answer.Answer = r.normalizeTime(raw, "2006-01-02")
		return answer, true, nil

	case models.QuestionTypeDateTime:
		if raw == "" {
			return answer, false, nil
		}
		answer.Answer = r.normalizeTime(raw, time.RFC3339)
		return answer, true, nil

	case models.QuestionTypeCountry:
		if raw == "" {
			return answer, false, nil
		}
		answer.Answer = strings.ToUpper(raw)
		return answer, true, nil
	}

	if raw == "" {
		return answer, false, nil
	}
	answer.Answer = raw
	return answer, true, nil
}

// normalizeTime formats parseable values with layout and keeps others as sent.
func (r *eventRun) normalizeTime(raw, layout string) string {
	t, err := source.ParseTime(raw, r.loc)
	if err != nil || t == nil {
		return raw
	}
	return t.Format(layout)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "x", "ja":
		return true
	}
	return false
}
