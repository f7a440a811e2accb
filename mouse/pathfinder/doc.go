// Package pathfinder decides where the robot drives next.
//
// All functions are stateless: they read a maze.Grid and a path.Path and
// either return a decision or repair the grid's distance field.
//
//   - Next performs greedy descent over the whole driven trace and reports
//     Found (a strictly better unvisited cell) or Stuck.
//   - NextUnvisited runs a breadth-first search from the head to the nearest
//     cell the robot has not driven through.
//   - UpdateDistances rewrites the distances of a dead-end loop after the
//     robot backtracked out of it, so it is never attractive again.
//
// Advance and Solve combine the three into the driving loop:
//
//	grid := maze.NewGrid(maze.TargetCenter)
//	trace := path.NewFrom(maze.Origin)
//	if err := pathfinder.Solve(grid, trace); err != nil {
//		log.Fatal(err)
//	}
//	trace.Optimize()
//	fmt.Println(trace.TimeToComplete())
//
// Every search is bounded by the grid size; nothing here blocks.
package pathfinder
