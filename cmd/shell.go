package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corpeningc/maintkit/internal/git"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newShellCmd(a *app, newRoot func() *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive maintkit shell",
		Long:  "Launch an interactive shell for running maintkit commands without repeating the 'maintkit' prefix",
		Run: func(cmd *cobra.Command, args []string) {
			runInteractiveShell(cmd.Root(), newRoot, inheritedFlags(cmd), a.cfg.BaseDir)
		},
	}
}

func runInteractiveShell(rootCmd *cobra.Command, newRoot func() *cobra.Command, inherited []string, baseDir string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	// Load command history
	historyFile := getHistoryFilePath()
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Setup tab completion for command names
	names := getCommandNames(rootCmd)
	line.SetCompleter(func(line string) (c []string) {
		for _, name := range names {
			if strings.HasPrefix(name, strings.ToLower(line)) {
				c = append(c, name)
			}
		}
		return
	})

	fmt.Println("maintkit interactive shell. Type 'exit' or press Ctrl+D to quit.")
	fmt.Println("Type 'help' to see available commands.")

	for {
		input, err := line.Prompt(shellPrompt(baseDir))
		if err != nil {
			// EOF or error (Ctrl+D)
			fmt.Println()
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		quit, handled := handleSpecialCommand(rootCmd, input)
		if quit {
			break
		}
		if handled {
			continue
		}

		executeCommand(newRoot, inherited, input)
	}

	// Save history on exit
	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

// inheritedFlags returns the persistent flags given to the shell itself, as arguments
// to put in front of every command run inside it.
func inheritedFlags(cmd *cobra.Command) []string {
	var args []string
	cmd.InheritedFlags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			args = append(args, "--"+f.Name+"="+f.Value.String())
		}
	})
	return args
}

// shellPrompt shows the current branch when dir is inside a git work tree.
func shellPrompt(dir string) string {
	if dir == "" {
		dir = "."
	}
	branch, err := git.New(dir).GetCurrentBranch()
	if err != nil || branch == "" {
		return "maintkit> "
	}
	return fmt.Sprintf("[%s]> ", branch)
}

func handleSpecialCommand(rootCmd *cobra.Command, input string) (quit, handled bool) {
	switch strings.ToLower(input) {
	case "exit", "quit":
		fmt.Println("Goodbye!")
		return true, true
	case "clear", "cls":
		fmt.Print("\033[H\033[2J")
		return false, true
	case "help":
		rootCmd.Help()
		return false, true
	}
	return false, false
}

// executeCommand runs input on a root command built for this line only, so flag values
// never leak from one command into the next.
func executeCommand(newRoot func() *cobra.Command, inherited []string, input string) {
	parts := parseCommandLine(input)
	if len(parts) == 0 {
		return
	}
	if parts[0] == "shell" {
		fmt.Println("Already in the shell.")
		return
	}

	rootCmd := newRoot()
	rootCmd.SetArgs(append(append([]string{}, inherited...), parts...))

	// errors are reported but never end the shell
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func parseCommandLine(input string) []string {
	// Simple parsing - split on spaces but respect quotes
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, char := range input {
		switch {
		case (char == '"' || char == '\'') && !inQuotes:
			inQuotes = true
			quoteChar = char
		case char == quoteChar && inQuotes:
			inQuotes = false
			quoteChar = 0
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func getCommandNames(rootCmd *cobra.Command) []string {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "shell" {
			continue
		}
		names = append(names, cmd.Name())
	}
	return names
}

func getHistoryFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".maintkit_history"
	}
	return filepath.Join(homeDir, ".maintkit_history")
}
