package ui

import (
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/orbitlapse/internal/orbit"
)

const (
	// Camera defaults, radians
	defaultPitch = 0.4
	maxPitch     = 1.4
	rotateStep   = 0.1

	minZoom  = 0.2
	maxZoom  = 8.0
	zoomStep = 1.25

	// Visible extent at zoom 1, in planet radii
	viewExtent = 1.6

	// Terminal cells are roughly twice as tall as they are wide.
	cellAspect = 2.0

	// Graticule spacing, degrees
	graticuleStep = 30.0

	// Entity glyphs
	glyphLaunching = '•'
	glyphOrbiting  = '●'

	colorSpace     = "236"
	colorGraticule = "#7DD3FC"
	colorCloud     = "#E5E7EB"
	colorLabel     = "252"
)

// Ocean fill, limb to centre.
var (
	planetGlyphs = []rune{'░', '░', '▒', '▒', '▓'}
	planetColors = []lipgloss.Color{"#1E3A8A", "#1D4ED8", "#1D4ED8", "#2563EB", "#3B82F6"}
)

// GlobeModel renders the world as an orthographic view of the planet and
// its entities.
type GlobeModel struct {
	width  int
	height int

	// Camera orientation and zoom
	yaw   float64
	pitch float64
	zoom  float64

	showLabels    bool
	showGraticule bool
}

// NewGlobeModel creates a globe view with the default camera.
func NewGlobeModel() GlobeModel {
	return GlobeModel{
		pitch:         defaultPitch,
		zoom:          1,
		showGraticule: true,
	}
}

// SetSize updates the viewport size.
func (m GlobeModel) SetSize(width, height int) GlobeModel {
	m.width = width
	m.height = height
	return m
}

// Update handles camera keys.
func (m GlobeModel) Update(msg tea.Msg) (GlobeModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "left", "h":
		m.yaw -= rotateStep
	case "right":
		m.yaw += rotateStep
	case "up", "k":
		m.pitch = math.Min(m.pitch+rotateStep, maxPitch)
	case "down", "j":
		m.pitch = math.Max(m.pitch-rotateStep, -maxPitch)
	case "+", "=":
		m.zoom = math.Min(m.zoom*zoomStep, maxZoom)
	case "-", "_":
		m.zoom = math.Max(m.zoom/zoomStep, minZoom)
	case "r":
		m.yaw, m.pitch, m.zoom = 0, defaultPitch, 1
	case "l":
		m.showLabels = !m.showLabels
	case "g":
		m.showGraticule = !m.showGraticule
	}
	return m, nil
}

// View renders the globe for a world snapshot.
func (m GlobeModel) View(snap orbit.Snapshot) string {
	if m.width < 20 || m.height < 8 {
		return "Globe view requires larger terminal"
	}
	canvas, colors := m.renderCanvas(snap, m.width, m.height)
	return renderGrid(canvas, colors)
}

// toCamera rotates a world point into camera space: X right, Y up, Z
// towards the viewer.
func (m GlobeModel) toCamera(p orbit.Vec3) orbit.Vec3 {
	return orbit.RotateX(orbit.RotateY(p, m.yaw), m.pitch)
}

// fromCamera inverts toCamera.
func (m GlobeModel) fromCamera(q orbit.Vec3) orbit.Vec3 {
	return orbit.RotateY(orbit.RotateX(q, -m.pitch), -m.yaw)
}

// scale returns columns per scene unit for a planet of the given radius.
func (m GlobeModel) scale(width, height int, radius float64) float64 {
	extent := radius * viewExtent
	if extent <= 0 {
		extent = 1
	}
	s := math.Min(float64(width)/(2*extent), float64(height)*cellAspect/(2*extent))
	return s * m.zoom
}

// project maps a world point to a cell. depth > 0 is in front of the
// planet's centre plane.
func (m GlobeModel) project(p orbit.Vec3, width, height int, scale float64) (x, y int, depth float64) {
	q := m.toCamera(p)
	cx, cy := float64(width)/2, float64(height)/2
	x = int(math.Round(cx + q.X*scale))
	y = int(math.Round(cy - q.Y*scale/cellAspect))
	return x, y, q.Z
}

func (m GlobeModel) renderCanvas(snap orbit.Snapshot, width, height int) ([][]rune, [][]lipgloss.Color) {
	canvas := make([][]rune, height)
	colors := make([][]lipgloss.Color, height)
	for y := 0; y < height; y++ {
		canvas[y] = make([]rune, width)
		colors[y] = make([]lipgloss.Color, width)
		for x := 0; x < width; x++ {
			canvas[y][x] = ' '
			colors[y][x] = colorSpace
		}
	}

	radius := snap.Planet.Radius
	scale := m.scale(width, height, radius)

	m.drawPlanet(canvas, colors, snap.Planet, scale)
	m.drawClouds(canvas, colors, snap.Clouds, scale)
	m.drawEntities(canvas, colors, snap.Entities, radius, scale)

	return canvas, colors
}

// cellToCamera returns the camera-space (u, v) of a cell centre.
func cellToCamera(x, y, width, height int, scale float64) (u, v float64) {
	cx, cy := float64(width)/2, float64(height)/2
	u = (float64(x) - cx) / scale
	v = (cy - float64(y)) * cellAspect / scale
	return u, v
}

func (m GlobeModel) drawPlanet(canvas [][]rune, colors [][]lipgloss.Color, planet orbit.Body, scale float64) {
	height := len(canvas)
	width := len(canvas[0])
	r := planet.Radius

	// Angular size of one column at the disc centre, degrees.
	cellDeg := 180 / math.Pi / (scale * r)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			u, v := cellToCamera(x, y, width, height, scale)
			d2 := u*u + v*v
			if d2 > r*r {
				continue
			}
			z := math.Sqrt(r*r - d2)
			shade := z / r

			local := orbit.RotateY(m.fromCamera(orbit.Vec3{X: u, Y: v, Z: z}), -planet.Spin)
			lat, lon := orbit.PositionToLatLon(local)

			if m.showGraticule && onGraticule(lat, lon, cellDeg/math.Max(shade, 0.25)) {
				canvas[y][x] = '·'
				colors[y][x] = colorGraticule
				continue
			}

			i := int(shade * float64(len(planetGlyphs)-1))
			canvas[y][x] = planetGlyphs[i]
			colors[y][x] = planetColors[i]
		}
	}
}

// onGraticule reports whether lat/lon lies within tol degrees of a grid line.
func onGraticule(lat, lon, tol float64) bool {
	if math.Abs(lat) > 80 {
		return false
	}
	return nearMultiple(lat, graticuleStep, tol/2) || nearMultiple(lon, graticuleStep, tol/2)
}

func nearMultiple(v, step, tol float64) bool {
	rem := math.Mod(math.Abs(v), step)
	return rem <= tol || step-rem <= tol
}

func (m GlobeModel) drawClouds(canvas [][]rune, colors [][]lipgloss.Color, clouds orbit.Body, scale float64) {
	height := len(canvas)
	width := len(canvas[0])
	r := clouds.Radius

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			u, v := cellToCamera(x, y, width, height, scale)
			d2 := u*u + v*v
			if d2 > r*r {
				continue
			}
			z := math.Sqrt(r*r - d2)
			local := orbit.RotateY(m.fromCamera(orbit.Vec3{X: u, Y: v, Z: z}), -clouds.Spin)
			lat, lon := orbit.PositionToLatLon(local)
			if cloudAt(lat, lon) {
				canvas[y][x] = '~'
				colors[y][x] = colorCloud
			}
		}
	}
}

// cloudAt places sparse cloud patches on a fixed lat/lon lattice.
func cloudAt(lat, lon float64) bool {
	a := int(math.Floor(lat / 9))
	b := int(math.Floor(lon / 12))
	h := uint32(a)*73856093 ^ uint32(b)*19349663
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return h%11 == 0
}

type entityPos struct {
	x, y  int
	depth float64
	glyph rune
	color lipgloss.Color
	name  string
}

func (m GlobeModel) drawEntities(canvas [][]rune, colors [][]lipgloss.Color, entities []orbit.Entity, planetRadius, scale float64) {
	height := len(canvas)
	width := len(canvas[0])

	var visible []entityPos
	for _, e := range entities {
		q := m.toCamera(e.Position)
		// Behind the planet disc.
		if q.Z < 0 && q.X*q.X+q.Y*q.Y < planetRadius*planetRadius {
			continue
		}

		x, y, depth := m.project(e.Position, width, height, scale)
		if x < 0 || x >= width || y < 0 || y >= height {
			continue
		}

		glyph := glyphOrbiting
		if e.State == orbit.StateLaunching {
			glyph = glyphLaunching
		}
		visible = append(visible, entityPos{
			x:     x,
			y:     y,
			depth: depth,
			glyph: glyph,
			color: lipgloss.Color(e.Spec.Color.Hex()),
			name:  e.Spec.Name,
		})
	}

	// Far to near, so nearer entities win a shared cell.
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].depth < visible[j].depth
	})

	for _, p := range visible {
		canvas[p.y][p.x] = p.glyph
		colors[p.y][p.x] = p.color
	}

	if m.showLabels {
		m.renderLabels(canvas, colors, visible)
	}
}

// renderLabels writes names to the right of entity glyphs, skipping
// labels that would cover another entity.
func (m GlobeModel) renderLabels(canvas [][]rune, colors [][]lipgloss.Color, positions []entityPos) {
	width := len(canvas[0])

	occupied := make(map[[2]int]bool, len(positions))
	for _, p := range positions {
		occupied[[2]int{p.x, p.y}] = true
	}

	for i := len(positions) - 1; i >= 0; i-- {
		p := positions[i]
		label := []rune(truncate(p.name, 16))
		startX := p.x + 2
		if startX+len(label) > width {
			continue
		}

		clear := true
		for j := range label {
			if occupied[[2]int{startX + j, p.y}] {
				clear = false
				break
			}
		}
		if !clear {
			continue
		}

		for j, r := range label {
			canvas[p.y][startX+j] = r
			colors[p.y][startX+j] = colorLabel
			occupied[[2]int{startX + j, p.y}] = true
		}
	}
}

// renderGrid turns a rune canvas and its colours into a string.
func renderGrid(canvas [][]rune, colors [][]lipgloss.Color) string {
	var b strings.Builder
	for y := range canvas {
		for x := range canvas[y] {
			style := lipgloss.NewStyle().Foreground(colors[y][x])
			b.WriteString(style.Render(string(canvas[y][x])))
		}
		if y < len(canvas)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
