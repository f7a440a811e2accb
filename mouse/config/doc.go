// Package config loads micromouse maze configurations from a directory of JSON files.
//
// Each file holds an engine.MazeConfig: a name, a description, the goal
// target ("center" or "origin"), the start cell, optional return_home and
// max_steps, and a 33-row ASCII layout of the walls:
//
//	+---+---+ ...
//	|S  |     ...
//	+   +---+ ...
//
// Posts sit at even rows and columns, walls between them are '-' or '|',
// and cells may be marked 'S' (start) or 'G' (goal). The outer boundary
// must be closed.
//
// Usage:
//
//	manager, err := config.NewManager("mazes")
//	if err != nil {
//		log.Fatal(err)
//	}
//	maze, err := manager.LoadConfig("classic")
//	configs, err := manager.ListConfigs()
//
// The default is classic.json, then the first valid maze in the directory,
// then the built-in open field.
package config
