// Package cli is a small hand-rolled flag parser. It exists instead of the
// standard flag package because the compiler driver needs prefix flags in
// the -W<name>/-Wno-<name> family, which flag cannot express.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value %q: %w", s, err)
	}
	*v.p = val
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }

type Flag struct {
	Name      string
	Shorthand string
	Usage     string
	Value     Value
	ArgName   string // empty for booleans
}

// ToggleEntry documents one name a prefix flag accepts, for the help page.
type ToggleEntry struct {
	Name    string
	Usage   string
	Enabled bool
}

// ToggleGroup is a family of -X<name>/-Xno-<name> switches sharing one
// prefix. Parsed occurrences accumulate in order into a string list that the
// caller interprets.
type ToggleGroup struct {
	Title   string
	Prefix  string
	Entries []ToggleEntry
	values  *[]string
}

type FlagSet struct {
	name       string
	flags      map[string]*Flag
	shorthands map[string]*Flag
	groups     []*ToggleGroup
	args       []string
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:       name,
		flags:      make(map[string]*Flag),
		shorthands: make(map[string]*Flag),
	}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, argName string) {
	*p = value
	f.addFlag(&Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: &stringValue{p}, ArgName: argName})
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.addFlag(&Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: &boolValue{p}})
}

// ToggleGroupFlags registers a prefix family. Matching arguments keep their
// prefix, so "-Wno-overflow" is recorded as "Wno-overflow".
func (f *FlagSet) ToggleGroupFlags(p *[]string, title, prefix string, entries []ToggleEntry) {
	*p = nil
	f.groups = append(f.groups, &ToggleGroup{Title: title, Prefix: prefix, Entries: entries, values: p})
}

func (f *FlagSet) addFlag(flag *Flag) {
	if _, ok := f.flags[flag.Name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", flag.Name))
	}
	f.flags[flag.Name] = flag
	if flag.Shorthand != "" {
		if _, ok := f.shorthands[flag.Shorthand]; ok {
			panic(fmt.Sprintf("shorthand redefined: %s", flag.Shorthand))
		}
		f.shorthands[flag.Shorthand] = flag
	}
}

func (f *FlagSet) Parse(arguments []string) error {
	f.args = nil
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			break
		}

		name := strings.TrimLeft(arg, "-")
		value := ""
		hasValue := false
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, value, hasValue = name[:eq], name[eq+1:], true
		}

		if group := f.matchGroup(name); group != nil {
			*group.values = append(*group.values, name)
			continue
		}

		flag := f.flags[name]
		if flag == nil {
			flag = f.shorthands[name]
		}
		if flag == nil {
			return fmt.Errorf("unknown flag: %s", arg)
		}
		if _, isBool := flag.Value.(*boolValue); isBool {
			if err := flag.Value.Set(value); err != nil {
				return err
			}
			continue
		}
		if !hasValue {
			if i+1 >= len(arguments) {
				return fmt.Errorf("flag needs an argument: %s", arg)
			}
			i++
			value = arguments[i]
		}
		if err := flag.Value.Set(value); err != nil {
			return err
		}
	}
	return nil
}

func (f *FlagSet) matchGroup(name string) *ToggleGroup {
	for _, group := range f.groups {
		if strings.HasPrefix(name, group.Prefix) && len(name) > len(group.Prefix) {
			return group
		}
	}
	return nil
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	FlagSet     *FlagSet
	Action      func(args []string) error
}

func NewApp(name string) *App {
	return &App{Name: name, FlagSet: NewFlagSet(name)}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintf(os.Stderr, "Usage: %s %s\nRun '%s --help' for available options.\n", a.Name, a.Synopsis, a.Name)
		return err
	}
	if help {
		a.writeHelp(os.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func (a *App) writeHelp(w *os.File) {
	width := terminalWidth()
	var sb strings.Builder

	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.Synopsis)
	if a.Description != "" {
		sb.WriteString("\n")
		for _, line := range wrapText(a.Description, width-4) {
			sb.WriteString("    " + line + "\n")
		}
	}

	flags := make([]*Flag, 0, len(a.FlagSet.flags))
	for _, flag := range a.FlagSet.flags {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })

	left := make([]string, len(flags))
	leftWidth := 0
	for i, flag := range flags {
		left[i] = flagSpelling(flag)
		if len(left[i]) > leftWidth {
			leftWidth = len(left[i])
		}
	}

	sb.WriteString("\nOptions\n")
	for i, flag := range flags {
		writeEntry(&sb, left[i], flag.Usage, leftWidth, width)
	}

	for _, group := range a.FlagSet.groups {
		fmt.Fprintf(&sb, "\n%s (-%s<name>, -%sno-<name>)\n", group.Title, group.Prefix, group.Prefix)
		entryWidth := 0
		for _, entry := range group.Entries {
			if len(entry.Name) > entryWidth {
				entryWidth = len(entry.Name)
			}
		}
		entries := make([]ToggleEntry, len(group.Entries))
		copy(entries, group.Entries)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, entry := range entries {
			mark := " "
			if entry.Enabled {
				mark = "x"
			}
			writeEntry(&sb, fmt.Sprintf("[%s] %s", mark, entry.Name), entry.Usage, entryWidth+4, width)
		}
	}
	fmt.Fprint(w, sb.String())
}

func flagSpelling(flag *Flag) string {
	var sb strings.Builder
	if flag.Shorthand != "" {
		fmt.Fprintf(&sb, "-%s, ", flag.Shorthand)
	}
	fmt.Fprintf(&sb, "--%s", flag.Name)
	if flag.ArgName != "" {
		fmt.Fprintf(&sb, " <%s>", flag.ArgName)
	}
	return sb.String()
}

func writeEntry(sb *strings.Builder, left, usage string, leftWidth, termWidth int) {
	usageWidth := termWidth - leftWidth - 7
	if usageWidth < 10 {
		usageWidth = 10
	}
	lines := wrapText(usage, usageWidth)
	if len(lines) == 0 {
		lines = []string{""}
	}
	fmt.Fprintf(sb, "    %-*s %s\n", leftWidth, left, lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintf(sb, "    %-*s %s\n", leftWidth, "", line)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 20 {
		return 80
	}
	return width
}

func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > maxWidth {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
