package repo

import "context"

// DemoProjects are added to an empty store by Seed.
var DemoProjects = []Project{
	{
		Name:      "Residential villa - Riyadh",
		Location:  "Riyadh, Al Narjis",
		Client:    "Private client",
		Type:      "residential",
		AreaM2:    400,
		Value:     850000,
		Status:    StatusActive,
		Progress:  65,
		StartDate: "2025-01-15",
	},
	{
		Name:      "Commercial complex - Jeddah",
		Location:  "Jeddah, Corniche",
		Client:    "Commercial Investment Co.",
		Type:      "commercial",
		AreaM2:    2500,
		Value:     3200000,
		Status:    StatusInProgress,
		Progress:  40,
		StartDate: "2025-02-01",
	},
}

// Seed fills an empty store with DemoProjects. A store holding any project is left alone.
func Seed(ctx context.Context, r Repository) error {
	projects, err := r.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) > 0 {
		return nil
	}
	for _, p := range DemoProjects {
		if _, err := r.CreateProject(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
