package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"p9e.in/sitelog/utils"
)

const maxKMZSize = 32 << 20

var errNoGeometry = errors.New("no placemark geometry found")

type kmlCoordinates struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlCoordinates `xml:"outerBoundaryIs>LinearRing"`
}

type kmlPlacemark struct {
	Name       string          `xml:"name"`
	Point      *kmlCoordinates `xml:"Point"`
	LineString *kmlCoordinates `xml:"LineString"`
	Polygon    *kmlPolygon     `xml:"Polygon"`
}

type kmlFolder struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlDocument struct {
	Document kmlFolder `xml:"Document"`
}

// extractKML returns the first .kml entry of a KMZ archive, or data itself
// when it is not a zip file.
func extractKML(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte("PK")) {
		return data, nil
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open KMZ archive: %w", err)
	}
	for _, f := range reader.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open KML file: %w", err)
			}
			defer rc.Close()
			return io.ReadAll(io.LimitReader(rc, maxKMZSize))
		}
	}
	return nil, fmt.Errorf("no KML file found in KMZ archive")
}

// parseCoordinates reads "lon,lat[,ele] lon,lat[,ele] ..." into points.
func parseCoordinates(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}

func (pm kmlPlacemark) geometry() orb.Geometry {
	switch {
	case pm.Point != nil:
		if pts := parseCoordinates(pm.Point.Coordinates); len(pts) > 0 {
			return pts[0]
		}
	case pm.LineString != nil:
		if pts := parseCoordinates(pm.LineString.Coordinates); len(pts) > 1 {
			return orb.LineString(pts)
		}
	case pm.Polygon != nil:
		if pts := parseCoordinates(pm.Polygon.Outer.Coordinates); len(pts) > 2 {
			return orb.Polygon{orb.Ring(pts)}
		}
	}
	return nil
}

func collectPlacemarks(f kmlFolder, fc *geojson.FeatureCollection) {
	for _, pm := range f.Placemarks {
		if g := pm.geometry(); g != nil {
			feature := geojson.NewFeature(g)
			feature.Properties["name"] = pm.Name
			fc.Append(feature)
		}
	}
	for _, sub := range f.Folders {
		collectPlacemarks(sub, fc)
	}
}

// ParseSiteKML converts the placemarks of a KML or KMZ file into features
// and returns the centre of their combined bounds as the site location.
func ParseSiteKML(data []byte) (*geojson.FeatureCollection, orb.Point, error) {
	kml, err := extractKML(data)
	if err != nil {
		return nil, orb.Point{}, err
	}
	var doc kmlDocument
	if err := xml.Unmarshal(kml, &doc); err != nil {
		return nil, orb.Point{}, fmt.Errorf("failed to parse KML: %w", err)
	}
	fc := geojson.NewFeatureCollection()
	collectPlacemarks(doc.Document, fc)
	if len(fc.Features) == 0 {
		return nil, orb.Point{}, errNoGeometry
	}

	bound := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		bound = bound.Union(f.Geometry.Bound())
	}
	return fc, bound.Center(), nil
}

// UploadSite handles POST /projects/{id}/site with a "kmz_file" upload and
// moves the project's map pin to the centre of the drawn site.
func (h *ProjectHandler) UploadSite(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxKMZSize); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("kmz_file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxKMZSize))
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	features, center, err := ParseSiteKML(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lat, lng := center.Lat(), center.Lon()
	if err := utils.ValidateCoordinate(lat, lng); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	project.Latitude, project.Longitude = &lat, &lng
	if err := h.projects.Update(r.Context(), project); err != nil {
		writeError(w, err, "project")
		return
	}

	zap.L().Info("project site imported",
		zap.String("project_id", project.ID.String()),
		zap.Int("features", len(features.Features)),
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Site imported successfully",
		"latitude":  lat,
		"longitude": lng,
		"features":  features,
	})
}
