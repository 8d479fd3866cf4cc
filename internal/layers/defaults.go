package layers

// Tile templates for the built-in Mars imagery.
const (
	VikingURL = "https://astro.arc.nasa.gov/maps/mars/1.0.0/mars_viking_mdim21_global_mola_90npd_200m/{z}/{x}/{-y}.jpg"
	HiRISEURL = "https://hirise-pds.lpl.arizona.edu/TILES/DTM/{z}/{x}/{y}.png"
	MOLAURL   = "https://planetarymaps.usgs.gov/tiles/mars/mola128_200m_90s_90n_cyl/{z}/{x}/{-y}.png"
)

// Defaults returns the layer set every registry starts from.
func Defaults() []Descriptor {
	return []Descriptor{
		{
			ID:        "mars-viking",
			Name:      "Viking MDIM 2.1",
			Kind:      KindBase,
			Visible:   true,
			Opacity:   1,
			SourceURL: VikingURL,
		},
		{
			ID:        "mars-hirise",
			Name:      "HiRISE",
			Kind:      KindBase,
			Visible:   false,
			Opacity:   1,
			SourceURL: HiRISEURL,
		},
		{
			ID:        "mars-mola",
			Name:      "MOLA Topography",
			Kind:      KindOverlay,
			Visible:   true,
			Opacity:   0.7,
			SourceURL: MOLAURL,
		},
	}
}
