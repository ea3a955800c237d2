// Package cliflags parses ksync's command-line surface into a Command
// struct, translating the shorthand family aliases accepted on the command line
// (spec §6: "object→saved_objects, tool→tools, agent→agents") before the
// core ever sees a version.Family.
package cliflags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/p-blackswan/ksync/internal/version"
)

// Name identifies one of the seven top-level subcommands.
type Name string

const (
	Auth    Name = "auth"
	Init    Name = "init"
	Pull    Name = "pull"
	Push    Name = "push"
	Add     Name = "add"
	Togo    Name = "togo"
	Migrate Name = "migrate"
)

var commandNames = map[string]Name{
	"auth": Auth, "init": Init, "pull": Pull, "push": Push,
	"add": Add, "togo": Togo, "migrate": Migrate,
}

// familyAliases maps the short CLI spellings to their canonical family.
var familyAliases = map[string]version.Family{
	"object":       version.FamilySavedObjects,
	"objects":      version.FamilySavedObjects,
	"saved_object": version.FamilySavedObjects,
	"tool":         version.FamilyTools,
	"agent":        version.FamilyAgents,
	"workflow":     version.FamilyWorkflows,
	"space":        version.FamilySpaces,
}

// Command is the fully-parsed, validated command struct the core accepts.
// It never holds a raw flag.FlagSet reference past Parse.
type Command struct {
	Name Name

	// Project is the root directory of the managed tree (the --project
	// flag, defaults to the current directory).
	Project string

	// EnvFile is the path given to --env, or "" if not supplied.
	EnvFile string

	// Spaces is the --space filter, empty meaning "every registered space".
	Spaces []string

	// Families is the --api filter, already normalized through
	// familyAliases, empty meaning "every family the command supports".
	Families []version.Family

	Managed             bool
	ManagedSet          bool
	Force               bool
	Debug               bool
	ExcludeDependencies bool

	// Selectors holds add's positional object IDs.
	Selectors []string

	// BundlePath is togo's optional --out destination.
	BundlePath string

	// BundleFile is init's source bundle for the bootstrap command.
	BundleFile string
}

// Parse builds a Command from argv (excluding argv[0]). The first
// positional argument must be a known subcommand name.
func Parse(argv []string) (*Command, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("cliflags: no command given; expected one of auth|init|pull|push|add|togo|migrate")
	}
	name, ok := commandNames[argv[0]]
	if !ok {
		return nil, fmt.Errorf("cliflags: unknown command %q", argv[0])
	}

	fs := pflag.NewFlagSet(argv[0], pflag.ContinueOnError)
	fs.SetOutput(new(strings.Builder)) // suppress pflag's own usage dump; the caller formats errors

	project := fs.String("project", ".", "root of the managed project directory")
	envFile := fs.String("env", "", "dotenv file to overlay onto the process environment before KIBANA_* is read")
	spaceCSV := fs.String("space", "", "comma-separated space ids to restrict the command to")
	apiCSV := fs.String("api", "", "comma-separated families to restrict the command to (object, tool, agent, workflow, space)")
	managed := fs.Bool("managed", false, "set the managed flag on every pushed record")
	force := fs.Bool("force", false, "attempt unsupported families / bypass the push floor, with a warning")
	debug := fs.Bool("debug", false, "enable verbose logging")
	excludeDeps := fs.Bool("exclude-dependencies", false, "disable add's dependency-closure traversal")
	out := fs.String("out", "", "bundle output path (togo)")
	bundleFile := fs.String("bundle", "", "source bundle file (init)")

	if err := fs.Parse(argv[1:]); err != nil {
		return nil, fmt.Errorf("cliflags: %w", err)
	}

	families, err := parseFamilyCSV(*apiCSV)
	if err != nil {
		return nil, err
	}

	cmd := &Command{
		Name:                name,
		Project:             *project,
		EnvFile:             *envFile,
		Spaces:              splitCSV(*spaceCSV),
		Families:            families,
		Managed:             *managed,
		ManagedSet:          fs.Changed("managed"),
		Force:               *force,
		Debug:               *debug,
		ExcludeDependencies: *excludeDeps,
		Selectors:           fs.Args(),
		BundlePath:          *out,
		BundleFile:          *bundleFile,
	}

	if err := cmd.validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (c *Command) validate() error {
	if c.Name != Add {
		return nil
	}
	if len(c.Selectors) == 0 {
		return fmt.Errorf("cliflags: add requires at least one object id")
	}
	if len(c.Families) != 1 {
		return fmt.Errorf("cliflags: add requires exactly one --api family")
	}
	if len(c.Spaces) > 1 {
		return fmt.Errorf("cliflags: add accepts at most one --space")
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFamilyCSV(s string) ([]version.Family, error) {
	raw := splitCSV(s)
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]version.Family, 0, len(raw))
	for _, token := range raw {
		fam, err := ResolveFamily(token)
		if err != nil {
			return nil, err
		}
		out = append(out, fam)
	}
	return out, nil
}

// ResolveFamily normalizes a single --api token (a family name or one of
// its aliases) into a version.Family.
func ResolveFamily(token string) (version.Family, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if alias, ok := familyAliases[token]; ok {
		return alias, nil
	}
	switch version.Family(token) {
	case version.FamilySavedObjects, version.FamilySpaces, version.FamilyWorkflows, version.FamilyAgents, version.FamilyTools:
		return version.Family(token), nil
	}
	return "", fmt.Errorf("cliflags: unknown family %q", token)
}
