package expenses

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/gastosqa/packages/core/env"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type Entity struct {
	// Name is the kebab-case resource name, e.g. "gastos-unicos"
	Name string
	// Title is the human readable name
	Title string
	// Path is the collection path relative to the base URL
	Path string
	// Template is the JSON body used to create an item
	Template string

	schemaFile string
}

var (
	GastosUnicos = Entity{
		Name:       "gastos-unicos",
		Title:      "Gastos únicos",
		Path:       "/gastos-unicos",
		schemaFile: "schemas/gasto-unico.json",
		Template: `{
  "descripcion": "QA gasto unico {{randomString(8)}}",
  "monto": {{amount(1, 5000)}},
  "fecha": "{{date(2006-01-02)}}",
  "categoria": "qa"
}`,
	}

	GastosRecurrentes = Entity{
		Name:       "gastos-recurrentes",
		Title:      "Gastos recurrentes",
		Path:       "/gastos-recurrentes",
		schemaFile: "schemas/gasto-recurrente.json",
		Template: `{
  "descripcion": "QA gasto recurrente {{randomString(8)}}",
  "monto": {{amount(1, 5000)}},
  "diaDeCobro": {{dayOfMonth()}},
  "fechaInicio": "{{date(2006-01-02)}}",
  "fechaFin": "{{date(2006-01-02, 365)}}",
  "categoria": "qa"
}`,
	}

	DebitosAutomaticos = Entity{
		Name:       "debitos-automaticos",
		Title:      "Débitos automáticos",
		Path:       "/debitos-automaticos",
		schemaFile: "schemas/debito-automatico.json",
		Template: `{
  "descripcion": "QA debito automatico {{randomString(8)}}",
  "monto": {{amount(1, 5000)}},
  "diaDeCobro": {{dayOfMonth()}},
  "medioDePago": "tarjeta-{{random(1000, 9999)}}",
  "categoria": "qa"
}`,
	}
)

// All returns the catalog in a stable order
func All() []Entity {
	return []Entity{GastosUnicos, GastosRecurrentes, DebitosAutomaticos}
}

// Lookup finds an entity by name, accepting the path form too
func Lookup(name string) (Entity, bool) {
	name = strings.Trim(strings.ToLower(name), "/")
	for _, e := range All() {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// Names lists the entity names, sorted
func Names() []string {
	names := make([]string, 0, 3)
	for _, e := range All() {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// ItemPath returns the path of a single item
func (e Entity) ItemPath(id string) string {
	return e.Path + "/" + id
}

// ItemSchema returns the JSON schema of one item
func (e Entity) ItemSchema() []byte {
	data, err := schemaFS.ReadFile(e.schemaFile)
	if err != nil {
		panic(fmt.Sprintf("expenses: missing embedded schema %s: %v", e.schemaFile, err))
	}
	return data
}

// ListSchema returns a schema for an array of items
func (e Entity) ListSchema() []byte {
	return []byte(fmt.Sprintf(`{"type": "array", "items": %s}`, e.ItemSchema()))
}

// Payload renders the create template. Unresolved placeholders are an error.
func (e Entity) Payload(r *env.Resolver) (string, error) {
	if r == nil {
		r = env.NewResolver()
	}
	if unresolved := r.GetUnresolvedVariables(e.Template); len(unresolved) > 0 {
		return "", fmt.Errorf("%s payload: unresolved placeholders %v", e.Name, unresolved)
	}

	body := r.Resolve(e.Template)
	if !gjson.Valid(body) {
		return "", fmt.Errorf("%s payload: rendered body is not valid JSON", e.Name)
	}
	return body, nil
}
