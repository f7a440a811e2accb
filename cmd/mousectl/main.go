// Command mousectl drives micromouse runs on a running server.
//
//	mousectl configs
//	mousectl create classic
//	mousectl step --steps 10 <session>
//	mousectl watch --batch 4 --delay 250ms <session>
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/service"
)

func main() {
	godotenv.Load()

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.Command {
	var client *Client

	sessionArg := func(cmd *cli.Command) (string, error) {
		id := cmd.Args().First()
		if id == "" {
			return "", fmt.Errorf("session id is required")
		}
		return id, nil
	}

	resetFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "reset", Usage: "reset the run to the start cell first"}
	}

	return &cli.Command{
		Name:  "mousectl",
		Usage: "drive micromouse runs over the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "micromouse server URL",
				Sources: cli.EnvVars("MOUSE_SERVER"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			client = NewClient(strings.TrimRight(cmd.String("server"), "/"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "configs",
				Usage: "list available mazes",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					configs, err := client.ListConfigs()
					if err != nil {
						return err
					}
					for _, c := range configs {
						fmt.Fprintf(out, "%-16s %-24s target=%s walls=%d return_home=%t\n",
							c.ConfigID, c.Name, c.Target, c.InteriorWalls, c.ReturnHome)
					}
					return nil
				},
			},
			{
				Name:      "create",
				Usage:     "start a run in a maze",
				ArgsUsage: "[config]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					session, err := client.CreateSession(cmd.Args().First())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\n", session.ID)
					printState(out, session.RunState)
					return nil
				},
			},
			{
				Name:  "sessions",
				Usage: "list runs",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					sessions, err := client.ListSessions()
					if err != nil {
						return err
					}
					for _, s := range sessions {
						phase := engine.Phase("-")
						if s.RunState != nil {
							phase = s.RunState.Phase
						}
						fmt.Fprintf(out, "%s  %-12s %s\n", s.ID, s.ConfigName, phase)
					}
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a run",
				ArgsUsage: "<session>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := sessionArg(cmd)
					if err != nil {
						return err
					}
					if err := client.DeleteSession(id); err != nil {
						return err
					}
					fmt.Fprintf(out, "deleted %s\n", id)
					return nil
				},
			},
			{
				Name:      "state",
				Usage:     "show the state of a run",
				ArgsUsage: "<session>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := sessionArg(cmd)
					if err != nil {
						return err
					}
					state, err := client.GetState(id)
					if err != nil {
						return err
					}
					printState(out, state)
					return nil
				},
			},
			{
				Name:      "step",
				Usage:     "take decisions",
				ArgsUsage: "<session>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Aliases: []string{"n"}, Value: 1, Usage: "number of decisions"},
					resetFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := sessionArg(cmd)
					if err != nil {
						return err
					}
					resp, err := client.Step(id, int(cmd.Int("steps")), cmd.Bool("reset"))
					if err != nil {
						return err
					}
					printStepResponse(out, resp)
					return nil
				},
			},
			{
				Name:      "run",
				Usage:     "drive until the run ends",
				ArgsUsage: "<session>",
				Flags:     []cli.Flag{resetFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := sessionArg(cmd)
					if err != nil {
						return err
					}
					resp, err := client.Run(id, cmd.Bool("reset"))
					if err != nil {
						return err
					}
					printStepResponse(out, resp)
					return nil
				},
			},
			{
				Name:      "reset",
				Usage:     "put the robot back on the start cell",
				ArgsUsage: "<session>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := sessionArg(cmd)
					if err != nil {
						return err
					}
					state, err := client.Reset(id)
					if err != nil {
						return err
					}
					printState(out, state)
					return nil
				},
			},
			{
				Name:      "history",
				Usage:     "page through the decision log",
				ArgsUsage: "<session>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: 20},
					&cli.StringFlag{Name: "order", Value: "desc", Usage: "asc or desc"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := sessionArg(cmd)
					if err != nil {
						return err
					}
					history, err := client.History(id, int(cmd.Int("page")), int(cmd.Int("limit")), cmd.String("order"))
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "page %d/%d, %d steps\n", history.Page, history.TotalPages, history.TotalSteps)
					for _, s := range history.Steps {
						fmt.Fprintf(out, "#%-4d %-9s %-7s %s -> %s\n", s.StepNumber, s.Phase, s.Outcome, s.From, s.To)
					}
					return nil
				},
			},
			{
				Name:      "render",
				Usage:     "draw what the robot has sensed",
				ArgsUsage: "<session>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := sessionArg(cmd)
					if err != nil {
						return err
					}
					text, err := client.Render(id)
					if err != nil {
						return err
					}
					fmt.Fprint(out, text)
					return nil
				},
			},
			{
				Name:      "watch",
				Usage:     "step a run in batches, redrawing the maze after each one",
				ArgsUsage: "<session>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "batch", Value: 1, Usage: "decisions per request"},
					&cli.DurationFlag{Name: "delay", Value: 200 * time.Millisecond, Usage: "pause between requests"},
					resetFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := sessionArg(cmd)
					if err != nil {
						return err
					}
					return watch(ctx, out, client, id, int(cmd.Int("batch")), cmd.Duration("delay"), cmd.Bool("reset"))
				},
			},
		},
	}
}

// watch steps the run until it ends or ctx is done
func watch(ctx context.Context, out io.Writer, client *Client, id string, batch int, delay time.Duration, reset bool) error {
	for {
		resp, err := client.Step(id, batch, reset)
		if err != nil {
			return err
		}
		reset = false

		text, err := client.Render(id)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		printState(out, resp.RunState)

		if resp.RunState == nil || resp.RunState.Phase.IsTerminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func printState(out io.Writer, state *engine.RunState) {
	if state == nil {
		fmt.Fprintln(out, "no run state")
		return
	}
	fmt.Fprintf(out, "phase=%s head=%s steps=%d stuck=%d\n", state.Phase, state.Head, state.Steps, state.StuckCount)
	if state.Message != "" {
		fmt.Fprintln(out, state.Message)
	}
	if len(state.OptimizedPath) > 0 {
		fmt.Fprintf(out, "speed run: %d cells, %d turns, estimate %.1f\n",
			len(state.OptimizedPath), state.Turns, state.TimeEstimate)
	}
}

func printStepResponse(out io.Writer, resp *service.StepResponse) {
	fmt.Fprintf(out, "executed %d steps %s -> %s\n", resp.StepsExecuted, resp.StartHead, resp.EndHead)
	if resp.Truncated {
		fmt.Fprintf(out, "truncated to %d steps\n", resp.Limit)
	}
	for _, ev := range resp.Events {
		fmt.Fprintf(out, "[%s] %s\n", ev.Type, ev.Message)
	}
	printState(out, resp.RunState)
}
