package core

// columns.go maps whatever headers a clinic's spreadsheet uses onto the
// patient schema.
//
// The alias table below is plain data: supporting another locale or another
// vendor's export is a matter of adding strings. Aliases are written already
// folded (see FoldHeader) and are tried in order; the first alias whose
// column exists with a non-empty value wins.

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical field names, as used in validation messages and the export header.
const (
	FieldName                  = "name"
	FieldEmail                 = "email"
	FieldPhone                 = "phone"
	FieldBirthDate             = "birthDate"
	FieldDocumentID            = "documentId"
	FieldAddress               = "address"
	FieldCity                  = "city"
	FieldProvince              = "province"
	FieldCountry               = "country"
	FieldGender                = "gender"
	FieldNotes                 = "notes"
	FieldPreExistingConditions = "preExistingConditions"
	FieldClientNumber          = "clientNumber"
)

type fieldAliases struct {
	field   string
	aliases []string
	set     func(*CanonicalRecord, string)
}

// fullNameAliases are headers holding the whole name in one cell.
var fullNameAliases = []string{
	"name", "full name", "fullname", "patient name", "patient",
	"nombre completo", "nombre y apellido", "nombre y apellidos", "paciente", "nombre",
	"nome completo", "nome",
}

// firstNameAliases and lastNameAliases are combined as "first last" when
// both are present, which takes precedence over fullNameAliases. A lone
// part is used only when no full-name column has a value.
var firstNameAliases = []string{
	"first name", "firstname", "given name", "given names",
	"nombre", "nombres", "primer nombre",
	"nome", "primeiro nome",
}

var lastNameAliases = []string{
	"last name", "lastname", "surname", "family name",
	"apellido", "apellidos", "apellido paterno", "primer apellido",
	"sobrenome", "ultimo nome", "apelido",
}

var columnAliases = []fieldAliases{
	{FieldEmail, []string{
		"email", "e mail", "email address", "mail",
		"correo", "correo electronico", "mail paciente",
		"correio", "correio eletronico",
	}, func(r *CanonicalRecord, v string) { r.Email = strings.ToLower(NormalizeText(v)) }},
	{FieldPhone, []string{
		"phone", "phone number", "telephone", "mobile", "mobile phone", "cell", "cellphone",
		"telefono", "telefono movil", "movil", "celular", "tel", "whatsapp",
		"telefone", "telemovel",
	}, func(r *CanonicalRecord, v string) { r.Phone = NormalizeText(v) }},
	{FieldBirthDate, []string{
		"birthdate", "birth date", "date of birth", "dob", "birthday",
		"fecha de nacimiento", "fecha nacimiento", "nacimiento", "f nacimiento",
		"data de nascimento", "data nascimento", "nascimento",
	}, func(r *CanonicalRecord, v string) {
		r.BirthDateRaw = NormalizeText(v)
		r.BirthDate = NormalizeDate(v)
	}},
	{FieldDocumentID, []string{
		"documentid", "document id", "document", "documento", "documento de identidad",
		"numero de documento", "nro documento", "n documento", "identificacion",
		"dni", "rut", "run", "curp", "cedula", "ci", "nif", "nie",
		"cpf", "rg", "documento de identificacao",
		"ssn", "passport", "pasaporte", "passaporte", "id",
	}, func(r *CanonicalRecord, v string) { r.DocumentID = NormalizeText(v) }},
	{FieldAddress, []string{
		"address", "street", "street address",
		"direccion", "domicilio", "calle",
		"endereco", "morada", "rua",
	}, func(r *CanonicalRecord, v string) { r.Address = NormalizeText(v) }},
	{FieldCity, []string{
		"city", "town", "ciudad", "localidad", "municipio", "comuna", "cidade",
	}, func(r *CanonicalRecord, v string) { r.City = NormalizeText(v) }},
	{FieldProvince, []string{
		"province", "state", "region",
		"provincia", "estado", "departamento", "comunidad autonoma",
		"uf",
	}, func(r *CanonicalRecord, v string) { r.Province = NormalizeText(v) }},
	{FieldCountry, []string{
		"country", "pais", "nacionalidad", "nacionalidade",
	}, func(r *CanonicalRecord, v string) { r.Country = NormalizeText(v) }},
	{FieldGender, []string{
		"gender", "sex", "genero", "sexo",
	}, func(r *CanonicalRecord, v string) {
		r.GenderRaw = NormalizeText(v)
		r.Gender = NormalizeGender(v)
	}},
	{FieldNotes, []string{
		"notes", "note", "comments", "remarks",
		"notas", "observaciones", "comentarios", "observacion",
		"observacoes", "anotacoes",
	}, func(r *CanonicalRecord, v string) { r.Notes = NormalizeText(v) }},
	{FieldPreExistingConditions, []string{
		"preexistingconditions", "pre existing conditions", "preexisting conditions",
		"medical history", "conditions", "allergies",
		"condiciones preexistentes", "enfermedades preexistentes", "antecedentes",
		"antecedentes medicos", "patologias", "alergias",
		"condicoes preexistentes", "historico medico",
	}, func(r *CanonicalRecord, v string) { r.PreExistingConditions = NormalizeText(v) }},
	{FieldClientNumber, []string{
		"clientnumber", "client number", "client id", "customer number", "patient number",
		"numero de cliente", "numero cliente", "nro cliente", "n cliente",
		"numero de paciente", "nro paciente", "historia clinica", "ficha",
		"numero do cliente", "prontuario",
	}, func(r *CanonicalRecord, v string) { r.ClientNumber = NormalizeText(v) }},
}

// FoldHeader reduces a header to its comparison key: lower case, accents
// removed, separators turned into single spaces.
func FoldHeader(h string) string {
	h = foldDiacritics(strings.ToLower(strings.TrimSpace(h)))
	h = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', '/', 'º', '°', ':', '#':
			return ' '
		}
		return r
	}, h)
	return strings.Join(strings.Fields(h), " ")
}

// foldDiacritics strips combining marks: "teléfono" → "telefono".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// headerLookup finds non-empty cells by folded header.
type headerLookup map[string][]string

func newHeaderLookup(row RawRow) headerLookup {
	lk := make(headerLookup, len(row.Headers))
	for i, h := range row.Headers {
		var v string
		if i < len(row.Values) {
			v = row.Values[i]
		}
		key := FoldHeader(h)
		lk[key] = append(lk[key], v)
	}
	return lk
}

// first returns the first non-empty value found under any alias, in alias order.
func (lk headerLookup) first(aliases []string) string {
	for _, alias := range aliases {
		for _, v := range lk[alias] {
			if strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	return ""
}

// ResolveColumns maps a raw row onto the canonical schema. Fields with no
// matching column stay empty.
func ResolveColumns(row RawRow) CanonicalRecord {
	lk := newHeaderLookup(row)
	var rec CanonicalRecord

	first := NormalizeText(lk.first(firstNameAliases))
	last := NormalizeText(lk.first(lastNameAliases))
	if first != "" && last != "" {
		rec.Name = first + " " + last
	} else {
		rec.Name = NormalizeText(lk.first(fullNameAliases))
	}
	if rec.Name == "" {
		// Only one name part was filled in.
		rec.Name = strings.TrimSpace(first + " " + last)
	}

	for _, fa := range columnAliases {
		if v := lk.first(fa.aliases); v != "" {
			fa.set(&rec, v)
		}
	}
	return rec
}
