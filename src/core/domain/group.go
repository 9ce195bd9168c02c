package domain

// Group is a machine group code with its catalog description.
type Group struct {
	Code        int    `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

var groupDescriptions = map[int]string{
	1: "Токарные станки",
	2: "Сверлильные и расточные станки",
	3: "Шлифовальные, полировальные, доводочные станки",
	4: "Комбинированные",
	5: "Зубообрабатывающие и резьбообрабатывающие станки",
	6: "Фрезерные станки",
	7: "Строгальные, долбежные и протяжные станки",
	8: "Разрезные станки",
	9: "Разные станки",
}

// GroupDescription returns the description of a group code. ok is false for
// codes without one, including the reserved code 0.
func GroupDescription(code int) (description string, ok bool) {
	description, ok = groupDescriptions[code]
	return description, ok
}

// Groups returns every described group in code order.
func Groups() []Group {
	out := make([]Group, 0, len(groupDescriptions))
	for code := 1; code <= MaxClassCode; code++ {
		if d, ok := groupDescriptions[code]; ok {
			out = append(out, Group{Code: code, Description: d})
		}
	}
	return out
}
