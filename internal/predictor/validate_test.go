package predictor

import (
	"earthslight/server/internal/models"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestValidate(t *testing.T) {
	valid := func() models.PropertyInput {
		return models.PropertyInput{Floors: 2, Area: 1200, Bedrooms: 3, Bathrooms: 2, Age: 5, Location: "Austin"}
	}

	tests := []struct {
		name        string
		modify      func(*models.PropertyInput)
		expectedErr string
	}{
		{name: "Valid", modify: func(*models.PropertyInput) {}},
		{name: "Age zero is valid", modify: func(in *models.PropertyInput) { in.Age = 0 }},
		{name: "Coordinates only", modify: func(in *models.PropertyInput) {
			in.Location = ""
			in.Lat, in.Lng = f(51.5), f(-0.12)
		}},
		{name: "Coordinate string", modify: func(in *models.PropertyInput) { in.Location = "12.5,77.2" }},
		{name: "Too many floors", modify: func(in *models.PropertyInput) { in.Floors = 51 }, expectedErr: "Floors must be between 1 and 50"},
		{name: "No floors", modify: func(in *models.PropertyInput) { in.Floors = 0 }, expectedErr: "Floors must be between 1 and 50"},
		{name: "Tiny area", modify: func(in *models.PropertyInput) { in.Area = 99 }, expectedErr: "Area must be between 100 and 10000 sq ft"},
		{name: "Huge area", modify: func(in *models.PropertyInput) { in.Area = 10001 }, expectedErr: "Area must be between 100 and 10000 sq ft"},
		{name: "Bedrooms", modify: func(in *models.PropertyInput) { in.Bedrooms = 11 }, expectedErr: "Bedrooms must be between 1 and 10"},
		{name: "Bathrooms", modify: func(in *models.PropertyInput) { in.Bathrooms = 0 }, expectedErr: "Bathrooms must be between 1 and 10"},
		{name: "Negative age", modify: func(in *models.PropertyInput) { in.Age = -1 }, expectedErr: "Age must be between 0 and 100 years"},
		{name: "Old age", modify: func(in *models.PropertyInput) { in.Age = 101 }, expectedErr: "Age must be between 0 and 100 years"},
		{name: "Short location", modify: func(in *models.PropertyInput) { in.Location = " A " }, expectedErr: "Provide a location name or valid lat/lng"},
		{name: "Only latitude", modify: func(in *models.PropertyInput) {
			in.Location = ""
			in.Lat = f(10)
		}, expectedErr: "Provide a location name or valid lat/lng"},
		{name: "Latitude out of range", modify: func(in *models.PropertyInput) { in.Lat, in.Lng = f(91), f(0) }, expectedErr: "Latitude must be between -90 and 90"},
		{name: "Longitude out of range", modify: func(in *models.PropertyInput) { in.Lat, in.Lng = f(0), f(-181) }, expectedErr: "Longitude must be between -180 and 180"},
		{name: "Coordinate string out of range", modify: func(in *models.PropertyInput) { in.Location = "95,10" }, expectedErr: "Latitude must be between -90 and 90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.modify(&in)

			err := Validate(in)
			if tt.expectedErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.expectedErr, verr.Message)
		})
	}
}

func TestNewRandom_SeededIsDeterministic(t *testing.T) {
	a := NewRandom(99)
	b := NewRandom(99)

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}

func TestNewRandom_ConcurrentUse(t *testing.T) {
	rng := NewRandom(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				v := rng.Float64()
				if v < 0 || v >= 1 {
					t.Errorf("Float64 out of range: %v", v)
				}
				if n := rng.IntN(1000); n < 0 || n >= 1000 {
					t.Errorf("IntN out of range: %d", n)
				}
			}
		}()
	}
	wg.Wait()
}
