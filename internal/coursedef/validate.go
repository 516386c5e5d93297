package coursedef

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"

	"github.com/noobular/noobular/internal/coursegraph"
)

// SupportedMajor is the course format major version this build reads.
const SupportedMajor = "v1"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their document names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate returns every problem with the definition: field rules, the
// format version, question rules and the structural graph checks.
func Validate(def *Definition) []coursegraph.Issue {
	var issues []coursegraph.Issue
	doc := func(node, format string, args ...any) {
		issues = append(issues, coursegraph.Issue{
			Kind:    coursegraph.IssueDocument,
			Node:    node,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if err := structValidator().Struct(def); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			doc("", "validate course: %v", err)
		}
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			doc("", "field %s fails rule %q", trimRoot(fe.Namespace()), rule)
		}
	}

	if def.Version != "" {
		v := def.Version
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		switch {
		case !semver.IsValid(v):
			doc("", "version %q is not a semantic version", def.Version)
		case semver.Major(v) != SupportedMajor:
			doc("", "unsupported course format version %s (want %s.x)", def.Version, SupportedMajor)
		}
	}

	for _, nd := range def.Nodes {
		if nd.HalfLife == "" {
			continue
		}
		if hl, err := time.ParseDuration(nd.HalfLife); err != nil || hl <= 0 {
			doc(nd.ID, "node %q has invalid half_life %q", nd.ID, nd.HalfLife)
		}
	}

	for li, l := range def.Lessons {
		for ki, kp := range l.KnowledgePoints {
			for qi, q := range kp.Questions {
				correct := 0
				for _, c := range q.Choices {
					if c.Correct {
						correct++
					}
				}
				if correct != 1 {
					doc(kp.Name, "lesson %d (%q), knowledge point %d (%q), question %d has %d correct answers, expected exactly 1",
						li, l.Title, ki, kp.Name, qi, correct)
				}
			}
		}
	}
	if n := def.KnowledgePointCount(); n > MaxKnowledgePoints {
		doc("", "too many knowledge points: max %d, observed %d", MaxKnowledgePoints, n)
	}

	nodes, edges := def.GraphInput()
	issues = append(issues, coursegraph.Validate(nodes, edges)...)
	return issues
}

func trimRoot(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
