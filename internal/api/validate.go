package api

import (
	"fmt"

	"github.com/OrangePeelr/MultiVehicleSearch/internal/model"
)

// validateVehicleQueries rejects malformed demand before it reaches the
// engine, which assumes positive lengths and non-negative quantities.
func validateVehicleQueries(queries []model.VehicleQuery) error {
	for i, q := range queries {
		if q.Length <= 0 {
			return fmt.Errorf("vehicle %d: length must be > 0", i)
		}
		if q.Quantity < 0 {
			return fmt.Errorf("vehicle %d: quantity must be >= 0", i)
		}
	}
	return nil
}
