package treatment

// Result is the canonical treatment plan: sixteen named sections, always
// fully populated. JSON keys follow the webhook contract (Portuguese), which
// is also the shape the frontend and stored consultations use.
//
// List sections carry their items untyped: the workflow that produces them
// gives no guarantee about item shape, and the normalizer passes items
// through verbatim rather than validating them one by one.
type Result struct {
	Fitoterapia           []any             `json:"fitoterapia"`
	MedicinaOriental      OrientalMedicine  `json:"medicina_oriental"`
	MedicinaOrtomolecular []any             `json:"medicina_ortomolecular"`
	MedicinaAntroposofica []any             `json:"medicina_antroposofica"`
	Homeopatia            []any             `json:"homeopatia"`
	MedicinaAyurvedica    AyurvedicMedicine `json:"medicina_ayurvedica"`
	CuraXamanica          []any             `json:"cura_xamanica"`
	MedicinaBiofisica     []any             `json:"medicina_biofisica"`
	AparelhosFrequencia   []any             `json:"aparelhos_frequencia"`
	Cromoterapia          []any             `json:"cromoterapia"`
	Aromaterapia          []any             `json:"aromaterapia"`
	Acupuntura            []any             `json:"acupuntura"`
	SaberesAncestrais     []any             `json:"saberes_ancestrais"`
	Alimentacao           DietaryGuidance   `json:"alimentacao"`
	MudancasRotina        []any             `json:"mudancas_rotina"`
	MensagemFinal         string            `json:"mensagem_final"`
}

// OrientalMedicine is the oriental medicine diagnosis block.
type OrientalMedicine struct {
	Diagnostico string `json:"diagnostico"`
	Acupuntura  []any  `json:"acupuntura"`
	Praticas    []any  `json:"praticas"`
}

// AyurvedicMedicine is the ayurvedic diagnosis block.
type AyurvedicMedicine struct {
	Diagnostico string `json:"diagnostico"`
	Tratamentos []any  `json:"tratamentos"`
}

// DietaryGuidance lists indicated and contraindicated foods.
type DietaryGuidance struct {
	Indicada       []any `json:"indicada"`
	Contraindicada []any `json:"contraindicada"`
}
