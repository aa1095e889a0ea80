package forms

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"thoughtstream/pkg/posts"
)

const (
	TitleMax      = 100
	BodyMax       = 1000
	DefaultUserID = 1
)

var validate = validator.New()

// PostForm is the create-form payload. Constraints are enforced here only;
// the remote service accepts anything.
type PostForm struct {
	Title  string `json:"title" validate:"required,max=100"`
	Body   string `json:"body" validate:"required,max=1000"`
	UserID int    `json:"userId" validate:"omitempty,min=1"`
}

// FieldError mirrors the error-list shape the browser form renders.
type FieldError struct {
	Location string `json:"location"`
	Param    string `json:"param"`
	Msg      string `json:"msg"`
}

var fieldMessages = map[string]map[string]string{
	"Title": {
		"required": "Title is required",
		"max":      "Title is too long",
	},
	"Body": {
		"required": "Content is required",
		"max":      "Content is too long",
	},
	"UserID": {
		"min": "User ID must be positive",
	},
}

// Normalize fills the default author id, matching the schema's
// userId-defaults-to-1 rule.
func (f *PostForm) Normalize() {
	if f.UserID == 0 {
		f.UserID = DefaultUserID
	}
}

// Check validates the draft and returns one message per failing field. The
// combined error carries all of them.
func (f *PostForm) Check() ([]FieldError, error) {
	err := validate.Struct(f)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	var fields []FieldError
	var combined error
	for _, fe := range verrs {
		msg := fieldMessages[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = "invalid value"
		}
		fields = append(fields, FieldError{
			Location: "body",
			Param:    jsonName(fe.Field()),
			Msg:      msg,
		})
		combined = multierr.Append(combined, errors.New(msg))
	}
	return fields, combined
}

func jsonName(field string) string {
	switch field {
	case "Title":
		return "title"
	case "Body":
		return "body"
	case "UserID":
		return "userId"
	}
	return field
}

// DraftCounts are the live character counters shown next to each field.
type DraftCounts struct {
	Title    int `json:"title"`
	TitleMax int `json:"titleMax"`
	Body     int `json:"body"`
	BodyMax  int `json:"bodyMax"`
}

func (f PostForm) Counts() DraftCounts {
	return DraftCounts{
		Title:    utf8.RuneCountInString(f.Title),
		TitleMax: TitleMax,
		Body:     utf8.RuneCountInString(f.Body),
		BodyMax:  BodyMax,
	}
}

// Creator submits a validated draft; on success it returns the post the
// service assigned an id to.
type Creator func(ctx context.Context, title, body string, userID int) (posts.Post, error)

// CreateForm holds the current draft between submissions. The draft is
// cleared only when creation succeeds; a failed submission keeps it so the
// user retries without retyping.
type CreateForm struct {
	mu     sync.Mutex
	draft  PostForm
	create Creator
	logger *zap.SugaredLogger
}

func NewCreateForm(create Creator, logger *zap.SugaredLogger) *CreateForm {
	return &CreateForm{create: create, logger: logger}
}

// Submit validates the input and hands it to the creator. Validation
// failures return field errors without touching the network; creator
// failures are returned as-is, already notified by the owner of the
// creation flow.
func (cf *CreateForm) Submit(ctx context.Context, input PostForm) (posts.Post, []FieldError, error) {
	cf.mu.Lock()
	cf.draft = input
	cf.mu.Unlock()

	input.Normalize()
	if fields, err := input.Check(); err != nil {
		cf.logger.Infow("create form rejected", "fields", len(fields))
		return posts.Post{}, fields, err
	}

	created, err := cf.create(ctx, input.Title, input.Body, input.UserID)
	if err != nil {
		return posts.Post{}, nil, err
	}

	cf.mu.Lock()
	cf.draft = PostForm{}
	cf.mu.Unlock()
	return created, nil, nil
}

func (cf *CreateForm) Draft() (PostForm, DraftCounts) {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return cf.draft, cf.draft.Counts()
}
