package skill

// NewStandardRegistry builds the registry carrying the standard set's card,
// equip, and character skills.
func NewStandardRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(
		NewSlash(),
		NewJink(),
		NewPeach(),
		NewAlcohol(),
		NewWanJianQiFa(),
		NewZhuGeLianNu(),
		NewChiTu(),
		NewDiLu(),
		NewYaJiao(),
		NewQingJian(),
		NewQingJianShadow(),
	)
	return r
}
