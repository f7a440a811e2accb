// Package maze models the micromouse maze as the robot knows it.
//
// A Grid is a fixed Width×Height array of Cells addressed by x + y*Width.
// Each Cell carries the walls sensed so far and a flood-fill distance to
// the target region. Walls only ever appear; UpdateWalls keeps both sides
// of every wall in agreement so callers never have to.
//
// Usage:
//
//	grid := maze.NewGrid(maze.TargetCenter)
//	grid.UpdateWalls(0, 0, [4]bool{true, false, false, true})
//	cell := grid.Cell(1, 0)
//	fmt.Println(cell.Distance, cell.Walls)
//
// Distances are seeded geometrically (Manhattan distance to the nearest
// target point) and afterwards changed only by the pathfinder's repair step.
package maze
