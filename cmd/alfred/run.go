package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ctreffe/alfred/internal/cli"
	"github.com/ctreffe/alfred/internal/compiler"
	"github.com/ctreffe/alfred/internal/logging"
	"github.com/ctreffe/alfred/internal/presentation/tui"
	"github.com/ctreffe/alfred/pkg/domain"
	"github.com/ctreffe/alfred/pkg/session"
)

var runCmd = &cobra.Command{
	Use:   "run <outline.yaml>",
	Short: "Run an experiment interactively in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.SlogLevel())

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		outline, err := compiler.Parse(data)
		if err != nil {
			return err
		}
		content, err := outline.Build()
		if err != nil {
			return err
		}

		saver, err := cli.BuildController(cfg.Saving, logger, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		saver.Start()
		defer saver.Close()

		sess := session.New(outline.Meta(), content,
			session.WithSaver(saver),
			session.WithLogger(logger),
		)
		return runLoop(sess, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runLoop(sess *session.Session, in io.Reader, out io.Writer) error {
	renderer := tui.NewRenderer(out)
	scanner := bufio.NewScanner(in)

	render := func() {
		view := tui.PageView{
			Path:        sess.CurrentPath(),
			CanForward:  sess.CanForward(),
			CanBackward: sess.CanBackward(),
		}
		if page := sess.CurrentPage(); page != nil {
			view.Title = page.Title()
			view.Subtitle = page.Subtitle()
			view.Body = page.Body()
		}
		renderer.Page(view)
	}

	render()
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		command := ""
		if len(fields) > 0 {
			command = fields[0]
		}

		var err error
		switch command {
		case "", "n", "next":
			err = sess.Forward()
		case "b", "back":
			err = sess.Backward()
		case "first":
			err = sess.JumpFirst()
		case "last":
			err = sess.JumpLast()
		case "jump":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: jump <index>[.<index>...], e.g. jump 2.1")
				continue
			}
			var path []int
			path, err = parsePath(fields[1])
			if err == nil {
				err = sess.JumpTo(path)
			}
		case "list":
			for _, entry := range sess.Jumplist() {
				fmt.Fprintf(out, "  %s\t%s\n", formatPath(entry.Path), entry.Label)
			}
			continue
		case "finish":
			sess.Finish()
			render()
			return nil
		case "q", "quit":
			return nil
		default:
			fmt.Fprintln(out, "commands: next, back, first, last, jump <pos>, list, finish, quit")
			continue
		}

		if err != nil {
			var moveErr *domain.MoveError
			if errors.As(err, &moveErr) {
				renderer.Blocked(moveErr.Reason, moveErr.Hints)
				continue
			}
			if errors.Is(err, domain.ErrInvalidPath) {
				fmt.Fprintln(out, err)
				continue
			}
			return err
		}
		render()
	}
}

func parsePath(s string) ([]int, error) {
	parts := strings.Split(s, ".")
	path := make([]int, 0, len(parts))
	for _, part := range parts {
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an index", domain.ErrInvalidPath, part)
		}
		path = append(path, i-1)
	}
	return path, nil
}

func formatPath(path []int) string {
	if len(path) == 0 {
		return "-"
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p + 1)
	}
	return strings.Join(parts, ".")
}
