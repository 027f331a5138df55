package timetable

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"strings"
	"time"

	"classeviva-tools/internal/components/assert"
	"classeviva-tools/internal/components/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("classeviva-tools/internal/timetable")

const (
	report_import_rasterize = "import.rasterize"
	report_import_ocr       = "import.ocr"
	report_import_room      = "import.room"
	report_import_done      = "import.done"
)

// Rasterizer renders every page of a document to an image at the given dpi.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, dpi int) ([]image.Image, error)
}

// OCR reads the text in an image.
type OCR interface {
	Text(ctx context.Context, img image.Image) (string, error)
}

// Geometry is the layout of a timetable page in pixels at ReferenceDPI. One
// page holds the timetable of one room.
type Geometry struct {
	ReferenceDPI int
	// DPI is what pages are rasterized at, coordinates are scaled to it.
	DPI   int
	Days  int
	Hours int
	// Top is the top left corner of the first cell.
	Top  image.Point
	Cell image.Point
	// RoomTop and RoomSize locate the room name.
	RoomTop  image.Point
	RoomSize image.Point
}

func DefaultGeometry() Geometry {
	return Geometry{
		ReferenceDPI: 100,
		DPI:          300,
		Days:         6,
		Hours:        13,
		Top:          image.Pt(76, 95),
		Cell:         image.Pt(255-76+1, 210-95+1),
		RoomTop:      image.Pt(128, 46),
		RoomSize:     image.Pt(170, 14),
	}
}

func (g Geometry) scale(p image.Point) image.Point {
	factor := float64(g.DPI) / float64(g.ReferenceDPI)
	return image.Pt(
		int(math.Round(float64(p.X)*factor)),
		int(math.Round(float64(p.Y)*factor)),
	)
}

// RoomRect is where the room name is printed.
func (g Geometry) RoomRect() image.Rectangle {
	top := g.scale(g.RoomTop)
	return image.Rectangle{Min: top, Max: top.Add(g.scale(g.RoomSize))}
}

// CellRect is the inside of the cell at day and hour, one pixel in from
// each side so the printed border is not read.
func (g Geometry) CellRect(day, hour int) image.Rectangle {
	top := g.scale(g.Top)
	size := g.scale(g.Cell)
	corner := image.Pt(top.X+size.X*day, top.Y+size.Y*hour)
	return image.Rect(corner.X+1, corner.Y+1, corner.X+size.X-1, corner.Y+size.Y-1)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	if sub, ok := img.(subImager); ok {
		return sub.SubImage(r)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

// Importer builds a Grid out of a scanned timetable document.
type Importer struct {
	Geometry   Geometry
	Rasterizer Rasterizer
	OCR        OCR

	tel telemetry.API
}

func NewImporter(rasterizer Rasterizer, ocr OCR, tel telemetry.API) Importer {
	assert.NotNil(rasterizer)
	assert.NotNil(ocr)
	assert.NotNil(tel)
	return Importer{
		Geometry:   DefaultGeometry(),
		Rasterizer: rasterizer,
		OCR:        ocr,
		tel:        telemetry.NewScopedAPI("timetable", tel),
	}
}

func (i Importer) text(ctx context.Context, img image.Image, r image.Rectangle) (string, error) {
	text, err := i.OCR.Text(ctx, crop(img, r))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Page reads the room name and the cells of one rasterized page.
func (i Importer) Page(ctx context.Context, img image.Image) (string, [][]string, error) {
	room, err := i.text(ctx, img, i.Geometry.RoomRect())
	if err != nil {
		return "", nil, fmt.Errorf("room name: %w", err)
	}

	days := make([][]string, i.Geometry.Days)
	for day := range days {
		days[day] = make([]string, i.Geometry.Hours)
		for hour := range days[day] {
			cell, err := i.text(ctx, img, i.Geometry.CellRect(day, hour))
			if err != nil {
				return "", nil, fmt.Errorf("cell %d/%d: %w", day+1, hour+1, err)
			}
			days[day][hour] = cell
		}
	}
	return room, days, nil
}

// Import rasterizes the document at path and reads one room per page. A
// room appearing on more than one page keeps the last one.
func (i Importer) Import(ctx context.Context, path string) (Grid, error) {
	ctx, span := tracer.Start(ctx, "importer:import")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	start := time.Now()
	pages, err := i.Rasterizer.Rasterize(ctx, path, i.Geometry.DPI)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to rasterize")
		i.tel.ReportBroken(report_import_rasterize, err, path)
		return nil, err
	}
	i.tel.ReportDebug(report_import_rasterize, len(pages), time.Since(start).String())

	start = time.Now()
	grid := Grid{}
	for n, page := range pages {
		room, days, err := i.Page(ctx, page)
		if err != nil {
			err = fmt.Errorf("page %d: %w", n+1, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read page")
			i.tel.ReportBroken(report_import_ocr, err)
			return nil, err
		}
		if room == "" {
			room = fmt.Sprintf("page %d", n+1)
			i.tel.ReportWarning(report_import_room, "no room name found", room)
		}
		if _, exists := grid[room]; exists {
			i.tel.ReportWarning(report_import_room, "room on more than one page", room, n+1)
		}
		grid[room] = days
	}
	i.tel.ReportDebug(report_import_done, len(grid), time.Since(start).String())

	return grid, nil
}
