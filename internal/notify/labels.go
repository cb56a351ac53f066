package notify

import "github.com/wolfman30/agency-leads/internal/leads"

const defaultFromName = "Whatamatters Leads"

type labelSet struct {
	NewLead      string
	FullName     string
	Email        string
	Company      string
	Stage        string
	Needs        string
	Message      string
	NoMessage    string
	Language     string
	FormType     string
	Date         string
	Client       string
	Tracking     string
	Source       string
	CTA          string
	Country      string
	Intent       map[leads.Intent]string
	Stages       map[leads.Stage]string
	ServiceNeeds map[leads.Need]string
}

var labels = map[leads.Language]labelSet{
	leads.LanguageEN: {
		NewLead:   "New Lead",
		FullName:  "Full Name:",
		Email:     "Email:",
		Company:   "Company:",
		Stage:     "Project Stage:",
		Needs:     "Services Needed:",
		Message:   "Message:",
		NoMessage: "No message provided",
		Language:  "Language:",
		FormType:  "Form Type:",
		Date:      "Date:",
		Client:    "Client:",
		Tracking:  "Tracking",
		Source:    "Source:",
		CTA:       "CTA:",
		Country:   "Country:",
		Intent: map[leads.Intent]string{
			leads.IntentAnalyzeProject: "Project Analysis",
			leads.IntentConversation:   "Conversation",
		},
		Stages: map[leads.Stage]string{
			leads.StageExploring: "Just exploring",
			leads.StageReady:     "Ready to start soon",
			leads.StageUrgent:    "Need it urgently",
		},
		ServiceNeeds: map[leads.Need]string{
			leads.NeedWebDesign:  "Web Design & UX",
			leads.NeedWebDev:     "Web Development",
			leads.NeedAIStrategy: "AI & Digital Strategy",
			leads.NeedSEO:        "SEO & Lead Generation",
			leads.NeedEcommerce:  "E-commerce Solutions",
			leads.NeedOther:      "Other",
		},
	},
	leads.LanguageES: {
		NewLead:   "Nuevo Lead",
		FullName:  "Nombre Completo:",
		Email:     "Email:",
		Company:   "Empresa:",
		Stage:     "Etapa del Proyecto:",
		Needs:     "Servicios Necesarios:",
		Message:   "Mensaje:",
		NoMessage: "Sin mensaje",
		Language:  "Idioma:",
		FormType:  "Tipo de formulario:",
		Date:      "Fecha:",
		Client:    "Cliente:",
		Tracking:  "Seguimiento",
		Source:    "Origen:",
		CTA:       "CTA:",
		Country:   "País:",
		Intent: map[leads.Intent]string{
			leads.IntentAnalyzeProject: "Análisis de Proyecto",
			leads.IntentConversation:   "Conversación",
		},
		Stages: map[leads.Stage]string{
			leads.StageExploring: "Solo explorando",
			leads.StageReady:     "Listo para comenzar",
			leads.StageUrgent:    "Lo necesito urgente",
		},
		ServiceNeeds: map[leads.Need]string{
			leads.NeedWebDesign:  "Diseño Web & UX",
			leads.NeedWebDev:     "Desarrollo Web",
			leads.NeedAIStrategy: "IA & Estrategia Digital",
			leads.NeedSEO:        "SEO & Generación de Leads",
			leads.NeedEcommerce:  "Soluciones E-commerce",
			leads.NeedOther:      "Otro",
		},
	},
}

func labelsFor(lang leads.Language) labelSet {
	if l, ok := labels[lang]; ok {
		return l
	}
	return labels[leads.LanguageEN]
}
