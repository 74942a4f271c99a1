package tui

type Category struct {
	ID          string
	Name        string
	Description string
}

var Categories = []Category{
	{ID: "compiler", Name: "Compiler", Description: "Compiler executable, timeout and retries"},
	{ID: "paths", Name: "Paths", Description: "Shader and output directory prefixes"},
	{ID: "execution", Name: "Execution", Description: "Print-only or compile, and parallelism"},
	{ID: "cache", Name: "Cache", Description: "Incremental build cache"},
	{ID: "output", Name: "Output", Description: "Plan format, plan file and build report"},
	{ID: "logging", Name: "Logging", Description: "Log level, format and watch debounce"},
}

func GetCategoryByID(id string) *Category {
	for i := range Categories {
		if Categories[i].ID == id {
			return &Categories[i]
		}
	}
	return nil
}

func GetCategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}
