package qa

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed expectations.yaml
var defaultExpectations []byte

// RouteExpectation maps roles to the expected outcome for one path. The
// "default" key applies to roles without their own entry.
type RouteExpectation struct {
	Path   string             `yaml:"path"`
	Expect map[string]Outcome `yaml:"expect"`
}

type Expectations struct {
	Roles  []domain.Role      `yaml:"roles"`
	Routes []RouteExpectation `yaml:"routes"`
}

// For returns the expected outcome of role on route.
func (r RouteExpectation) For(role domain.Role) Outcome {
	if o, ok := r.Expect[string(role)]; ok {
		return o
	}
	return r.Expect["default"]
}

// LoadExpectations decodes the table at path, or the built-in table when
// path is empty.
func LoadExpectations(path string) (*Expectations, error) {
	data := defaultExpectations
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading expectations: %w", err)
		}
		data = b
	}
	return ParseExpectations(data)
}

func ParseExpectations(data []byte) (*Expectations, error) {
	var e Expectations
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding expectations: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Expectations) Validate() error {
	if len(e.Roles) == 0 {
		return fmt.Errorf("expectations list no roles")
	}
	for _, r := range e.Roles {
		if _, err := domain.ParseRole(string(r)); err != nil {
			return err
		}
	}
	if len(e.Routes) == 0 {
		return fmt.Errorf("expectations list no routes")
	}
	for _, rt := range e.Routes {
		if rt.Path == "" || rt.Path[0] != '/' {
			return fmt.Errorf("route path %q must start with /", rt.Path)
		}
		for key, o := range rt.Expect {
			if _, err := ParseOutcome(string(o)); err != nil {
				return fmt.Errorf("route %s, %s: %w", rt.Path, key, err)
			}
		}
		for _, r := range e.Roles {
			if rt.For(r) == "" {
				return fmt.Errorf("route %s has no expectation for %s", rt.Path, r)
			}
		}
	}
	return nil
}
