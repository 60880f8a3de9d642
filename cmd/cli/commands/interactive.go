package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var sessionExcluded = []string{"interactive", "completion", "help"}

// InteractiveCmd creates the interactive command. Commands run inside the
// session share one AppContext, so the Sheets authorization and the database
// pool are set up once.
func InteractiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start a session that runs several commands with one setup",
		Long: `Start an interactive session where select, history and show can be run
repeatedly without re-authenticating or reconnecting.

Type 'help' to see available commands and 'exit' or 'quit' to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\nStarting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			return runSession(cmd.Parent(), os.Stdin, os.Stdout)
		},
	}
}

func sessionCommands(root *cobra.Command) map[string]*cobra.Command {
	cmds := make(map[string]*cobra.Command)
	for _, sub := range root.Commands() {
		if !slices.Contains(sessionExcluded, sub.Name()) {
			cmds[sub.Name()] = sub
		}
	}
	return cmds
}

func runSession(root *cobra.Command, in io.Reader, out io.Writer) error {
	cmds := sessionCommands(root)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		parts, err := splitCommandLine(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Fprintf(out, "Error parsing command: %v\n\n", err)
			continue
		}
		if len(parts) == 0 {
			continue
		}

		name, rest := parts[0], parts[1:]
		switch name {
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "help":
			printSessionHelp(out, cmds)
			continue
		}

		target, ok := cmds[name]
		if !ok {
			fmt.Fprintf(out, "Unknown command: %s (type 'help' for available commands)\n\n", name)
			continue
		}

		if err := runInSession(target, rest); err != nil {
			fmt.Fprintf(out, "Error: %v\n\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// runInSession calls the command's RunE directly so PersistentPreRunE does
// not initialize the application a second time
func runInSession(target *cobra.Command, args []string) error {
	target.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		_ = flag.Value.Set(flag.DefValue)
	})

	if err := target.ParseFlags(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	args = target.Flags().Args()

	if target.Args != nil {
		if err := target.Args(target, args); err != nil {
			return err
		}
	}

	switch {
	case target.RunE != nil:
		return target.RunE(target, args)
	case target.Run != nil:
		target.Run(target, args)
	}
	return nil
}

func printSessionHelp(out io.Writer, cmds map[string]*cobra.Command) {
	fmt.Fprintln(out, "\nAvailable commands:")

	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		fmt.Fprintf(out, "  %-30s %s\n", cmds[name].Use, cmds[name].Short)
	}

	fmt.Fprintln(out, "\n  help                           Show this help message")
	fmt.Fprintln(out, "  exit, quit                     Exit the interactive session")
}

// splitCommandLine splits a line into arguments. Single or double quotes
// group words, so paths with spaces can be passed to --i and --o.
func splitCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", quote)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
