package grammar

// topologicalSort orders items so that every item appears after the
// items it depends on, using depth-first search with three-color
// marking (unvisited, visiting, visited) to detect cycles.
//
// Adapted directly from the teacher's schema.topologicalSort
// (schema/tsort.go): same three-color DFS shape, generalized here to
// order the schema primitive's generated tables by foreign-key
// dependency instead of by migration dependency.
func topologicalSort[T any](items []T, dependencies map[string][]string, getID func(T) string) []T {
	var sorted []T
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	itemMap := make(map[string]T)

	for _, item := range items {
		itemMap[getID(item)] = item
	}

	var visit func(string) bool
	visit = func(id string) bool {
		if visiting[id] {
			return false
		}
		if visited[id] {
			return true
		}
		visiting[id] = true
		for _, dep := range dependencies[id] {
			if _, exists := itemMap[dep]; exists {
				if !visit(dep) {
					return false
				}
			}
		}
		visiting[id] = false
		visited[id] = true
		if item, exists := itemMap[id]; exists {
			sorted = append(sorted, item)
		}
		return true
	}

	for _, item := range items {
		id := getID(item)
		if !visited[id] {
			if !visit(id) {
				return []T{}
			}
		}
	}
	return sorted
}
