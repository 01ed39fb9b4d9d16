// Package schema pushes a SQL file to a remote database one statement at a time.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinStatementLength is the shortest statement Apply will send; anything shorter is
// treated as a splitting artifact.
const MinStatementLength = 10

var ErrNoExecutor = errors.New("schema: no database endpoint configured")

// Settings selects and configures an Executor. A DSN takes precedence over the REST URL.
type Settings struct {
	URL  string `mapstructure:"url" validate:"omitempty,url"`
	Key  string `mapstructure:"key" validate:"required_with=URL"`
	RPC  string `mapstructure:"rpc"`
	DSN  string `mapstructure:"dsn" validate:"required_without=URL"`
	File string `mapstructure:"file"`
}

var validate = validator.New()

func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrNoExecutor, verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// Executor runs single SQL statements against a database.
type Executor interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, statement string) error
}

// NewExecutor builds the executor described by s.
func NewExecutor(ctx context.Context, s Settings) (Executor, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.DSN != "" {
		return NewPgxExecutor(ctx, s.DSN)
	}
	return NewRESTExecutor(s.URL, s.Key, s.RPC), nil
}

// SplitStatements splits sql on semicolons. Leading line comments are stripped from
// each piece and pieces left empty are dropped.
func SplitStatements(sql string) []string {
	var statements []string
	for _, part := range strings.Split(sql, ";") {
		part = stripLeadingComments(part)
		if part == "" {
			continue
		}
		statements = append(statements, part)
	}
	return statements
}

func stripLeadingComments(part string) string {
	part = strings.TrimSpace(part)
	for strings.HasPrefix(part, "--") {
		idx := strings.IndexByte(part, '\n')
		if idx < 0 {
			return ""
		}
		part = strings.TrimSpace(part[idx+1:])
	}
	return part
}

type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// Event is reported once per statement as Apply progresses.
type Event struct {
	Index     int
	Total     int
	Statement string
	Skipped   bool
	Err       error
}

func (e Event) Preview() string {
	return Preview(e.Statement, 100)
}

func Preview(statement string, n int) string {
	statement = strings.Join(strings.Fields(statement), " ")
	if len(statement) <= n {
		return statement
	}
	return statement[:n] + "..."
}

// Apply executes each statement independently. Failures are counted and reported to
// progress, never returned. It stops early only when ctx is done.
func Apply(ctx context.Context, exec Executor, statements []string, progress func(Event)) Summary {
	summary := Summary{Total: len(statements)}

	for i, stmt := range statements {
		ev := Event{Index: i + 1, Total: len(statements), Statement: stmt}

		switch {
		case len(stmt) < MinStatementLength:
			ev.Skipped = true
			summary.Skipped++
		case ctx.Err() != nil:
			ev.Err = ctx.Err()
			summary.Failed++
		default:
			if err := exec.Exec(ctx, stmt); err != nil {
				ev.Err = err
				summary.Failed++
			} else {
				summary.Succeeded++
			}
		}

		if progress != nil {
			progress(ev)
		}
	}

	return summary
}
