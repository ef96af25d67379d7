package api

import "net/http"

type Zone struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Building struct {
	Name  string `json:"name"`
	Zones []Zone `json:"zones"`
}

// Buildings is the fixed site layout served until buildings are stored.
var Buildings = []Building{
	{
		Name: "Building 1",
		Zones: []Zone{
			{ID: 1, Name: "Zone 1"},
			{ID: 2, Name: "Zone 2"},
		},
	},
	{
		Name: "Building 2",
		Zones: []Zone{
			{ID: 3, Name: "Zone A"},
			{ID: 4, Name: "Zone B"},
			{ID: 5, Name: "Zone C"},
		},
	},
}

func (s *Server) handleBuildings(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, Buildings)
}
