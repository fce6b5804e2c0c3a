package tryerrors

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExitCodeFromError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"ErrParse":                   {&ErrParse{}, ExitInvalid},
		"ErrInvalidArgument":         {&ErrInvalidArgument{}, ExitInvalid},
		"ErrNoMatch":                 {&ErrNoMatch{}, ExitNoMatch},
		"ErrGraphLoad":               {&ErrGraphLoad{}, ExitGraphLoad},
		"pkg.Error => ErrParse":      {errors.WithMessage(&ErrParse{}, "foo"), ExitInvalid},
		"pkg.Error => ErrNoMatch":    {errors.Wrap(&ErrNoMatch{}, "foo"), ExitNoMatch},
		"pkg.Error => ErrGraphLoad":  {errors.WithStack(&ErrGraphLoad{}), ExitGraphLoad},
		"pkg.Error":                  {errors.New("foo"), ExitUnknown},
		"nil":                        {nil, ExitOK},
		"multierror in ErrGraphLoad": {&ErrGraphLoad{Err: multierror.Append(nil, errors.New("a"))}, ExitGraphLoad},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeFromError(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"parse with query": {
			&ErrParse{Token: `"abc`, Query: `foo "abc`, Message: "unterminated quote"},
			`invalid token "\"abc" in query "foo \"abc"; unterminated quote`,
		},
		"parse without query": {&ErrParse{Token: "!"}, `invalid token "!"`},
		"parse without token": {&ErrParse{Message: "no query given"}, "invalid query; no query given"},
		"no match":            {&ErrNoMatch{Queries: []string{"'foo", "bar"}}, `no tasks matched queries "'foo", "bar"`},
		"no match no queries": {&ErrNoMatch{}, "no tasks matched"},
		"graph load":          {&ErrGraphLoad{Source: "graph.json", Err: errors.New("boom")}, "error loading graph.json: boom"},
		"invalid argument": {
			&ErrInvalidArgument{Name: "rebuild", Value: "30", Message: "must be between 2 and 20"},
			`value "30" is invalid for field "rebuild"; must be between 2 and 20`,
		},
		"invalid argument int value": {
			&ErrInvalidArgument{Name: "rebuild", Value: 30},
			`value "30" is invalid for field "rebuild"`,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestErrGraphLoadUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := errors.WithStack(&ErrGraphLoad{Source: "x", Err: inner})
	assert.True(t, errors.Is(err, inner))
}
