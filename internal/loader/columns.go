package loader

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadAliases reads a YAML column-alias file mapping source headers
// onto the canonical column names, e.g.:
//
//	columns:
//	  "Cust No": "Customer ID"
//	  "Outlet Name": "New Shop Name"
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read column aliases %s", path)
	}

	var wrapper struct {
		Columns map[string]string `yaml:"columns"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "loader: parse column aliases")
	}
	if len(wrapper.Columns) == 0 {
		return nil, eris.Errorf("loader: no columns mapping in %s", path)
	}
	return wrapper.Columns, nil
}
