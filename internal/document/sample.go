package document

// NewSampleDocument returns two overlapping circles, a line through both
// centers and the intersections between them, with a label on each
// circle-circle point.
func NewSampleDocument(sceneID string) *SceneDocument {
	doc := NewEmptyDocument(sceneID, "Intersections")
	doc.Scene.BoundingBox = [4]float64{-12, 12, 20, -12}
	doc.Scene.Width = 960
	doc.Scene.Height = 720

	doc.Elements = []ElementDef{
		{ID: "A", Type: ElementTypePoint, Name: "A", X: 0, Y: 0},
		{ID: "B", Type: ElementTypePoint, Name: "B", X: 8, Y: 0},
		{ID: "r", Type: ElementTypePoint, Name: "r", X: 0, Y: 5, Style: Style{Fill: "#888888"}},
		{ID: "c1", Type: ElementTypeCircle, Parents: []string{"A", "r"}},
		{ID: "c2", Type: ElementTypeCircle, Parents: []string{"B"}, Radius: 5},
		{ID: "l1", Type: ElementTypeLine, Parents: []string{"A", "B"}},
		{
			ID: "cc", Type: ElementTypeIntersection, Parents: []string{"c1", "c2"},
			Points: []string{"P", "Q"}, PointNames: []string{"P", "Q"},
		},
		{ID: "cl", Type: ElementTypeIntersection, Parents: []string{"l1", "c2"}, Points: []string{"S", "T"}},
		{ID: "lP", Type: ElementTypeLabel, Parents: []string{"P"}, Text: "P", OffsetX: 0.3, OffsetY: 0.3},
		{ID: "lQ", Type: ElementTypeLabel, Parents: []string{"Q"}, Text: "Q", OffsetX: 0.3, OffsetY: -0.6},
		{ID: "PQ", Type: ElementTypeArrow, Parents: []string{"P", "Q"}},
	}
	return doc
}
