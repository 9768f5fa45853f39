package homeassistant

import (
	"encoding/json"
	"fmt"
	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/forzadash"
	"github.com/pkg/errors"
	"io"
	"io/ioutil"
	"os"
	"strings"
)

const discoveryPrefix = "homeassistant"

type Device struct {
	Identifiers  string `toml:"identifiers" json:"identifiers,omitempty"`
	Manufacturer string `toml:"manufacturer" json:"manufacturer,omitempty"`
	Model        string `toml:"model" json:"model,omitempty"`
	Name         string `toml:"name" json:"name,omitempty"`
	SWVersion    string `toml:"sw_version" json:"sw_version,omitempty"`
}

type Entity struct {
	Name string `toml:"name"`
	// Key defaults to the lower-cased name with spaces replaced by _.
	Key     string                 `toml:"key"`
	Icon    string                 `toml:"icon"`
	Options map[string]interface{} `toml:"options"`
}

func (e Entity) ResolvedKey() string {
	if e.Key != "" {
		return e.Key
	}
	return strings.Join(strings.Split(strings.ToLower(e.Name), " "), "_")
}

type Domain struct {
	Name     string   `toml:"name"`
	Entities []Entity `toml:"entities"`
}

// Discovery declares the entities announced to Home Assistant. Each entity
// key must name a metric, it becomes a key of the published state record.
type Discovery struct {
	UIDPrefix string   `toml:"uid_prefix"`
	Device    Device   `toml:"device"`
	Domains   []Domain `toml:"domains"`
}

// Fill sets the uid prefix and device fields the discovery file left empty.
func (d *Discovery) Fill(uidPrefix string, device Device) {
	if d.UIDPrefix == "" {
		d.UIDPrefix = uidPrefix
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&d.Device.Identifiers, device.Identifiers)
	fill(&d.Device.Manufacturer, device.Manufacturer)
	fill(&d.Device.Model, device.Model)
	fill(&d.Device.Name, device.Name)
	fill(&d.Device.SWVersion, device.SWVersion)
}

func DefaultDiscovery() *Discovery {
	return &Discovery{
		Domains: []Domain{
			{
				Name: "binary_sensor",
				Entities: []Entity{
					{
						Name: "Active",
						Options: map[string]interface{}{
							"device_class": "running",
						},
					},
				},
			},
		},
	}
}

func LoadDiscoveryFile(fileName string) (*Discovery, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return LoadDiscoveryFromReader(file)
}

func LoadDiscoveryFromReader(r io.Reader) (*Discovery, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read discovery reader")
	}
	d := &Discovery{}
	if _, err := toml.Decode(string(data), d); err != nil {
		return nil, errors.Wrap(err, "unable to load discovery configuration")
	}
	if _, err := d.Metrics(); err != nil {
		return nil, err
	}
	return d, nil
}

// Metrics returns the metric behind every declared entity, in declaration
// order.
func (d *Discovery) Metrics() ([]forzadash.Metric, error) {
	var metrics []forzadash.Metric
	for _, domain := range d.Domains {
		if domain.Name == "" {
			return nil, errors.New("discovery domain without a name")
		}
		for _, entity := range domain.Entities {
			if entity.Name == "" {
				return nil, errors.Errorf("entity without a name in domain %s", domain.Name)
			}
			m, err := forzadash.ParseMetric(entity.ResolvedKey())
			if err != nil {
				return nil, errors.Wrapf(err, "entity %s", entity.Name)
			}
			metrics = append(metrics, m)
		}
	}
	if len(metrics) == 0 {
		return nil, errors.New("no discovery entities declared")
	}
	return metrics, nil
}

// SafeName makes s usable as a topic level.
func SafeName(s string) string {
	return strings.Join(strings.Split(s, " "), "-")
}

func (d *Discovery) StateTopic() string {
	return SafeName(d.Device.Name) + "/state"
}

func (d *Discovery) ConfigTopic(domain string, key string) string {
	device := SafeName(d.Device.Name)
	return fmt.Sprintf("%s/%s/%s/%s_%s/config", discoveryPrefix, domain, device, device, key)
}

// ConfigPayload is the retained discovery message for one entity. Entity
// options override the generated keys, the metric unit overrides both.
func (d *Discovery) ConfigPayload(entity Entity) ([]byte, error) {
	key := entity.ResolvedKey()
	config := map[string]interface{}{
		"unique_id":      d.UIDPrefix + key,
		"device":         d.Device,
		"name":           entity.Name,
		"object_id":      fmt.Sprintf("%s %s", d.Device.Name, key),
		"retain":         true,
		"state_topic":    d.StateTopic(),
		"value_template": fmt.Sprintf("{{ value_json.%s }}", key),
	}
	if entity.Icon != "" {
		config["icon"] = entity.Icon
	}
	for k, v := range entity.Options {
		config[k] = v
	}
	if m, err := forzadash.ParseMetric(key); err == nil && m.Unit() != "" {
		config["unit_of_measurement"] = m.Unit()
	}
	payload, err := json.Marshal(config)
	return payload, errors.Wrapf(err, "unable to encode discovery config for %s", key)
}
