package match

// Capabilities describes which column groups the input log provides. It is
// resolved once when the log is loaded; derivations consult it instead of
// probing for columns row by row.
type Capabilities struct {
	Outcome       bool // FTHG, FTAG, FTR
	Shots         bool // HS, AS
	ShotsOnTarget bool // HST, AST
	Fouls         bool // HF, AF
	Cards         bool // HY, AY, HR, AR
	Corners       bool // HC, AC
	Odds          bool // B365H, B365D, B365A
}

// Merge returns the capabilities shared by both logs. A column group counts
// only when every merged source carries it.
func (c Capabilities) Merge(o Capabilities) Capabilities {
	return Capabilities{
		Outcome:       c.Outcome && o.Outcome,
		Shots:         c.Shots && o.Shots,
		ShotsOnTarget: c.ShotsOnTarget && o.ShotsOnTarget,
		Fouls:         c.Fouls && o.Fouls,
		Cards:         c.Cards && o.Cards,
		Corners:       c.Corners && o.Corners,
		Odds:          c.Odds && o.Odds,
	}
}

// Full is the capability set of a modern football-data.co.uk file.
func Full() Capabilities {
	return Capabilities{
		Outcome: true, Shots: true, ShotsOnTarget: true,
		Fouls: true, Cards: true, Corners: true, Odds: true,
	}
}

// Missing names the optional column groups o carries and c lacks.
func (c Capabilities) Missing(o Capabilities) []string {
	var out []string
	for _, g := range []struct {
		name     string
		has, ref bool
	}{
		{"shots", c.Shots, o.Shots},
		{"shots on target", c.ShotsOnTarget, o.ShotsOnTarget},
		{"fouls", c.Fouls, o.Fouls},
		{"cards", c.Cards, o.Cards},
		{"corners", c.Corners, o.Corners},
		{"odds", c.Odds, o.Odds},
	} {
		if g.ref && !g.has {
			out = append(out, g.name)
		}
	}
	return out
}

// Union returns the column groups present in either log.
func (c Capabilities) Union(o Capabilities) Capabilities {
	return Capabilities{
		Outcome:       c.Outcome || o.Outcome,
		Shots:         c.Shots || o.Shots,
		ShotsOnTarget: c.ShotsOnTarget || o.ShotsOnTarget,
		Fouls:         c.Fouls || o.Fouls,
		Cards:         c.Cards || o.Cards,
		Corners:       c.Corners || o.Corners,
		Odds:          c.Odds || o.Odds,
	}
}
