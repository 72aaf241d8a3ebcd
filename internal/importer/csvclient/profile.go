package csvclient

// Profile describes the column layout of a client list export.
// Adding a new layout is just adding a new Profile to the profiles slice.
type Profile struct {
	Name     string
	NameCol  string
	PhoneCol string
	EmailCol string
}

// requiredCols returns the column names that must be present for this
// profile to match. Email is optional in every layout.
func (p Profile) requiredCols() []string {
	return []string{p.NameCol, p.PhoneCol}
}

// profiles is tried in order during auto-detection.
var profiles = []Profile{
	{
		Name:     "cartera",
		NameCol:  "nombre",
		PhoneCol: "teléfono",
		EmailCol: "correo",
	},
	{
		Name:     "cartera-sin-tilde",
		NameCol:  "nombre",
		PhoneCol: "telefono",
		EmailCol: "correo",
	},
	{
		Name:     "celular",
		NameCol:  "nombre",
		PhoneCol: "celular",
		EmailCol: "email",
	},
	{
		Name:     "google-contacts",
		NameCol:  "name",
		PhoneCol: "phone 1 - value",
		EmailCol: "e-mail 1 - value",
	},
}
