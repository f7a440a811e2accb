// Package engine simulates a micromouse run on a known maze.
//
// A MazeConfig describes the true maze in a 33x33 text layout. The engine
// keeps that layout hidden from the robot: the robot's maze.Grid starts with
// no walls and only learns the walls of the cell it stands in. Every Step
// senses, asks the pathfinder for one decision and drives it.
//
// Usage:
//
//	config, err := engine.LoadMazeConfig("mazes/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mouse, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if _, err := mouse.Run(ctx, 0); err != nil {
//		log.Printf("run failed: %v", err)
//	}
//	state := mouse.GetState()
//	fmt.Println(state.Phase, state.TimeEstimate)
//
// Runs move through PhaseExploring, optionally PhaseReturning, and end in
// PhaseFinished or PhaseFailed. A failed run cannot be stepped again until
// Reset.
package engine
