package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/service"
)

// lastStepsShown caps the per-step lines in a step summary
const lastStepsShown = 10

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatRunState(session.RunState))
}

func formatSessionList(sessions []service.SessionInfo) string {
	if len(sessions) == 0 {
		return "No sessions"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d session(s):\n", len(sessions)))
	for _, s := range sessions {
		phase, head, steps := engine.Phase("unknown"), "-", 0
		if s.RunState != nil {
			phase, head, steps = s.RunState.Phase, s.RunState.Head.String(), s.RunState.Steps
		}
		b.WriteString(fmt.Sprintf("- %s [%s] %s at %s after %d steps\n", s.ID, s.ConfigName, phase, head, steps))
	}
	return b.String()
}

func formatRunState(state *engine.RunState) string {
	if state == nil {
		return "No run state available"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Phase: %s | Position: %s | Target: %s\n", state.Phase, state.Head, state.Target))
	b.WriteString(fmt.Sprintf("Steps: %d (total %d) | Stuck: %d | Trace: %d cells\n",
		state.Steps, state.TotalSteps, state.StuckCount, len(state.Path)))
	if state.Message != "" {
		b.WriteString("Message: " + state.Message + "\n")
	}

	if len(state.OptimizedPath) > 0 {
		b.WriteString(fmt.Sprintf("\nExploration: %d cells\n", len(state.ExplorationPath)))
		b.WriteString(fmt.Sprintf("Speed run: %d cells, %d turns, estimated %.1f\n",
			len(state.OptimizedPath), state.Turns, state.TimeEstimate))
	}
	if len(state.ReturnPath) > 0 {
		b.WriteString(fmt.Sprintf("Return trip: %d cells\n", len(state.ReturnPath)))
	}
	return b.String()
}

func formatStep(s engine.StepResult) string {
	line := fmt.Sprintf("#%d %s %s→%s d=%d", s.Step, s.Outcome, s.From, s.To, s.Distance)
	if len(s.Backtrack) > 0 {
		line += fmt.Sprintf(" backtrack=%d", len(s.Backtrack))
	}
	if len(s.Route) > 2 {
		line += fmt.Sprintf(" route=%d", len(s.Route))
	}
	return line
}

func formatStepResponse(result *service.StepResponse) string {
	var b strings.Builder

	if result.RequestedSteps == 0 {
		b.WriteString(fmt.Sprintf("Executed %d steps (run to completion)\n", result.StepsExecuted))
	} else {
		b.WriteString(fmt.Sprintf("Executed %d/%d steps\n", result.StepsExecuted, result.RequestedSteps))
	}
	if result.Truncated {
		b.WriteString(fmt.Sprintf("Request truncated to %d steps\n", result.Limit))
	}
	if result.StoppedReason != "" {
		b.WriteString(fmt.Sprintf("Stopped: %s (%s)\n", result.StoppedReason, result.StopReasonCode))
	}
	b.WriteString(fmt.Sprintf("Moved %s → %s | %s → %s", result.StartHead, result.EndHead, result.StartPhase, result.EndPhase))
	if result.StuckDelta > 0 {
		b.WriteString(fmt.Sprintf(" | stuck +%d", result.StuckDelta))
	}
	b.WriteString("\n")

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		steps := result.Steps
		if len(steps) > lastStepsShown {
			b.WriteString(fmt.Sprintf("... %d earlier steps\n", len(steps)-lastStepsShown))
			steps = steps[len(steps)-lastStepsShown:]
		}
		for _, s := range steps {
			b.WriteString(formatStep(s) + "\n")
		}
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			b.WriteString(fmt.Sprintf("- %s: %s\n", event.Type, event.Message))
		}
	}

	b.WriteString("\n" + formatRunState(result.RunState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Step history: page %d/%d (%d steps total)\n",
		history.Page, history.TotalPages, history.TotalSteps))

	if len(history.Steps) == 0 {
		b.WriteString("No steps on this page\n")
		return b.String()
	}

	for _, s := range history.Steps {
		b.WriteString(fmt.Sprintf("#%d [%s] %s %s→%s", s.StepNumber, s.Phase, s.Outcome, s.From, s.To))
		if s.RouteLength > 2 {
			b.WriteString(fmt.Sprintf(" route=%d", s.RouteLength))
		}
		b.WriteString("\n")
	}

	var nav []string
	if history.HasPrevious {
		nav = append(nav, fmt.Sprintf("previous: page %d", history.Page-1))
	}
	if history.HasNext {
		nav = append(nav, fmt.Sprintf("next: page %d", history.Page+1))
	}
	if len(nav) > 0 {
		b.WriteString("(" + strings.Join(nav, ", ") + ")\n")
	}
	return b.String()
}

func formatConfigs(configs []service.ConfigInfo) string {
	if len(configs) == 0 {
		return "No mazes available"
	}

	var b strings.Builder
	b.WriteString("Available mazes:\n")
	for _, c := range configs {
		b.WriteString(fmt.Sprintf("- %s: %s (target %s, %d interior walls", c.ConfigID, c.Name, c.Target, c.InteriorWalls))
		if c.ReturnHome {
			b.WriteString(", returns home")
		}
		b.WriteString(")\n")
		if c.Description != "" {
			b.WriteString("  " + c.Description + "\n")
		}
	}
	return b.String()
}

func formatRender(render *service.RenderResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Session %s (%s)\n", render.SessionID, render.Phase))
	b.WriteString(strings.Join(render.Lines, "\n"))
	b.WriteString("\n\nLegend:\n")

	keys := make([]string, 0, len(render.Legend))
	for k := range render.Legend {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s = %s\n", k, render.Legend[k]))
	}
	return b.String()
}

const instructions = `Micromouse - how the robot works

THE MAZE
16x16 cells. Coordinates are (x,y) with (0,0) in the north-west corner;
north is y-1. The goal is the 2x2 block (7..8, 7..8) for "center" mazes or
the start corner for "origin" mazes.

WHAT THE ROBOT KNOWS
Nothing at first. Every cell starts with the distance it would have in an
empty maze. On each cell it visits it senses the four walls, records them on
both sides, and repairs the distance map so every reachable cell holds one
more than its lowest open neighbour (flood fill).

DECIDING
From its current cell the robot drives to the open neighbour with the lowest
distance, preferring N, E, S, W on ties, as long as it has not already
driven through that neighbour. When every open neighbour is already on its
trail the robot is stuck: it searches breadth-first along known open walls
for the nearest cell with an open, unvisited neighbour and backtracks there.
Each stuck event is counted.

FINISHING
On reaching a goal cell the trail is optimized: any detour that returns to
a cell already on the route is cut out. The speed run costs one unit per
cell between start and goal plus 0.5 for each turn. Mazes with return_home then drive the robot
back to the start before the run finishes.

FAILING
A run fails when no unexplored cell is reachable, the trail overflows, or
the step limit for the maze is reached.

TOOLS
step moves one decision at a time (up to 256 per call), run drives to the
end, render_maze shows the sensed walls, step_history pages through every
decision taken since the session was created.`
