package normalize

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PriceBand is the expected price range for a product keyword, in TL.
type PriceBand struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// PriceBands maps a product keyword to its expected range. The table is
// reference data that operators retune without redeploys; ship it as a
// YAML file and load it at startup.
type PriceBands map[string]PriceBand

// DefaultBands returns the built-in band table used when no file is
// configured.
func DefaultBands() PriceBands {
	return PriceBands{
		"ekmek":    {Min: 3, Max: 15},
		"süt":      {Min: 15, Max: 50},
		"yumurta":  {Min: 25, Max: 100},
		"pirinç":   {Min: 30, Max: 150},
		"makarna":  {Min: 10, Max: 50},
		"un":       {Min: 15, Max: 80},
		"şeker":    {Min: 20, Max: 80},
		"yağ":      {Min: 50, Max: 300},
		"et":       {Min: 150, Max: 600},
		"tavuk":    {Min: 50, Max: 200},
		"balık":    {Min: 50, Max: 500},
		"domates":  {Min: 10, Max: 50},
		"patates":  {Min: 5, Max: 30},
		"soğan":    {Min: 5, Max: 30},
		"mercimek": {Min: 30, Max: 100},
		"bulgur":   {Min: 20, Max: 80},
	}
}

// LoadBands reads a band table from a YAML file.
func LoadBands(path string) (PriceBands, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: read price bands %s", path)
	}

	var wrapper struct {
		PriceBands PriceBands `yaml:"price_bands"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "normalize: parse price bands")
	}
	if len(wrapper.PriceBands) == 0 {
		return nil, eris.Errorf("normalize: price bands file %s is empty", path)
	}

	return wrapper.PriceBands, nil
}

// Suspicious reports whether a price falls outside the known band for
// any keyword contained in the product name. Unknown products are never
// suspicious.
func (b PriceBands) Suspicious(productName string, price float64) bool {
	name := lowerTurkish.String(productName)
	for keyword, band := range b {
		if strings.Contains(name, keyword) {
			return price < band.Min || price > band.Max
		}
	}
	return false
}
