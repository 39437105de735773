package repository

import (
	"context"
	"errors"

	"eventmigrate/backend/internal/models"
)

var ErrVoucherBinding = errors.New("voucher binds both an item and a quota")

// UpsertQuestion creates or updates the question with the same identifier
// and replaces the set of items it is asked for.
func (t *Tx) UpsertQuestion(ctx context.Context, question models.Question) (models.Question, error) {
	question.Question = localized(question.Question)
	question.HelpText = localized(question.HelpText)
	err := t.tx.QueryRow(ctx, `
INSERT INTO questions (event_id, identifier, question, help_text, type, required, position, valid_file_portrait)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (event_id, identifier) DO UPDATE SET
	question = EXCLUDED.question,
	help_text = EXCLUDED.help_text,
	type = EXCLUDED.type,
	required = EXCLUDED.required,
	position = EXCLUDED.position,
	valid_file_portrait = EXCLUDED.valid_file_portrait
RETURNING id;`,
		question.EventID,
		question.Identifier,
		question.Question,
		question.HelpText,
		question.Type,
		question.Required,
		question.Position,
		question.ValidFilePortrait,
	).Scan(&question.ID)
	if err != nil {
		return question, err
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM question_items WHERE question_id = $1`, question.ID); err != nil {
		return question, err
	}
	if len(question.ItemIDs) > 0 {
		if _, err := t.tx.Exec(ctx, `
INSERT INTO question_items (question_id, item_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING;`, question.ID, question.ItemIDs); err != nil {
			return question, err
		}
	}
	return question, nil
}

func (t *Tx) UpsertQuestionOption(ctx context.Context, option models.QuestionOption) (models.QuestionOption, error) {
	option.Answer = localized(option.Answer)
	err := t.tx.QueryRow(ctx, `
INSERT INTO question_options (question_id, identifier, answer, position) VALUES ($1, $2, $3, $4)
ON CONFLICT (question_id, identifier) DO UPDATE SET
	answer = EXCLUDED.answer,
	position = EXCLUDED.position
RETURNING id;`, option.QuestionID, option.Identifier, option.Answer, option.Position).Scan(&option.ID)
	return option, err
}

// DeleteQuestionOptionsExcept removes the options of a question whose
// identifiers are not in keep and reports how many were removed.
func (t *Tx) DeleteQuestionOptionsExcept(ctx context.Context, questionID int64, keep []string) (int64, error) {
	if keep == nil {
		keep = []string{}
	}
	tag, err := t.tx.Exec(ctx, `
DELETE FROM question_options
WHERE question_id = $1 AND NOT (identifier = ANY($2::text[]));`, questionID, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpsertVoucher creates or updates the voucher with the same code, copying
// the remote redemption count.
func (t *Tx) UpsertVoucher(ctx context.Context, voucher models.Voucher) (models.Voucher, error) {
	if voucher.ItemID != nil && voucher.QuotaID != nil {
		return voucher, ErrVoucherBinding
	}
	err := t.tx.QueryRow(ctx, `
INSERT INTO vouchers (
	event_id, code, max_usages, redeemed, valid_until, price_mode, value, item_id, quota_id, show_hidden_items, tag
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (event_id, code) DO UPDATE SET
	max_usages = EXCLUDED.max_usages,
	redeemed = EXCLUDED.redeemed,
	valid_until = EXCLUDED.valid_until,
	price_mode = EXCLUDED.price_mode,
	value = EXCLUDED.value,
	item_id = EXCLUDED.item_id,
	quota_id = EXCLUDED.quota_id,
	show_hidden_items = EXCLUDED.show_hidden_items,
	tag = EXCLUDED.tag
RETURNING id, redeemed;`,
		voucher.EventID,
		voucher.Code,
		voucher.MaxUsages,
		voucher.Redeemed,
		voucher.ValidUntil,
		voucher.PriceMode,
		voucher.Value,
		voucher.ItemID,
		voucher.QuotaID,
		voucher.ShowHiddenItems,
		nullString(voucher.Tag),
	).Scan(&voucher.ID, &voucher.Redeemed)
	return voucher, err
}
