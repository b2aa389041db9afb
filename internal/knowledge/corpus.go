package knowledge

import "encoding/json"

// Built-in knowledge base content. The platform ships with a small static
// corpus (FAQ, UI translation tables, project documentation) so the chatbot
// answers sensibly even when no external knowledge directory is configured.

const faqText = `FAQ – Frequently Asked Questions

Q1: What property types can I list or search for?
A1: You can list and search for various property types including apartments, houses, condos, commercial spaces, and land.

Q2: How do I register as a new user?
A2: Click on the "Register" link in the navigation bar, fill out the required information, and submit the form. You will receive a confirmation email.

Q3: Can I manage multiple properties under one account?
A3: Yes, our system allows you to manage multiple properties efficiently from your dashboard.

Q4: What payment methods are accepted for rent?
A4: We accept various payment methods including bank transfers, credit/debit cards, and mobile money. Specific options may vary by region.

Q5: Is there a fee for listing a property?
A5: Landlords pay a small one-time fee per listing under the pay-per-post model. Tenants search for free.

Q6: How does the pay-per-post model work?
A6: Landlords pay only once to list a property (no monthly subscription). There are no recurring charges and tenant search is completely free.

Q7: What languages are supported?
A7: English, Amharic, and Afaan Oromo are fully supported across the platform.

Q8: How can I contact customer support?
A8: You can contact customer support via email at support@rentalmgmt.com or by calling our hotline during business hours.

Q9: What if I forget my password?
A9: Click on the "Forgot Password" link on the login page and follow the instructions to reset your password.

Q10: Can I get notifications for new properties matching my criteria?
A10: Yes, you can set up email notifications for new listings that match your saved search criteria in your dashboard settings.`

const projectDocText = `RENTAL MANAGEMENT SYSTEM – PROJECT DOCUMENTATION

The Rental Management System is a multilingual web platform that connects
landlords and tenants in Ethiopia without expensive brokers.

Key features:
- Pay-per-post model. Landlords pay only once to list a property (no monthly subscription).
- 100% free search for tenants.
- Supports three languages: English, Amharic, Afaan Oromo.
- High-quality photos and map view (OpenStreetMap).
- Direct messaging and phone call to landlords.
- Secure application system with document upload.

Three simple steps for tenants:
1. Sign up / log in, then search homes by location, price, bedrooms.
2. Contact the owner and submit an application with documents.
3. Move in, then use the platform to report issues or leave reviews.

Objectives:
- Reduce landlord advertising cost by at least 30%.
- Reduce tenant search time by at least 50%.
- Full multilingual support (English, Amharic, Afaan Oromo).
- Secure and scalable architecture.

Limitations:
- Rent payments are processed offline (cash or bank transfer).
- Listings must be updated manually by landlords.`

// UI translation tables. Indexed as documents so translation-related
// questions retrieve them, and exposed for direct key lookup.
var translationTables = map[string]map[string]string{
	"english": {
		"home": "Home", "about": "About Us", "contact": "Contact Us",
		"services": "Services", "properties": "Properties",
		"login": "Login", "register": "Register", "search": "Search",
		"rent": "Rent", "buy": "Buy", "sell": "Sell",
		"faq": "FAQ", "terms": "Terms and Conditions", "privacy": "Privacy Policy",
		"dashboard": "Dashboard", "profile": "Profile", "logout": "Logout",
		"welcome": "Welcome", "description": "This is a rental management system.",
		"address": "Address", "phone": "Phone", "email": "Email",
	},
	"amharic": {
		"home": "መነሻ", "about": "ስለ እኛ", "contact": "እኛን ያግኙን",
		"services": "አገልግሎቶች", "properties": "ንብረቶች",
		"login": "ግባ", "register": "ይመዝገቡ", "search": "ፈልግ",
		"rent": "ኪራይ", "buy": "ግዛ", "sell": "ሽጥ",
		"faq": "ተደጋጋሚ ጥያቄዎች", "terms": "ውሎች እና ሁኔታዎች", "privacy": "ግላዊነት መመሪያ",
		"dashboard": "ዳሽቦርድ", "profile": "መገለጫ", "logout": "ውጣ",
		"welcome": "እንኳን ደህና መጡ", "description": "ይህ የኪራይ አስተዳደር ስርዓት ነው።",
		"address": "አድራሻ", "phone": "ስልክ", "email": "ኢሜይል",
	},
	"afaan_oromo": {
		"home": "Mana", "about": "Waa'ee Keenya", "contact": "Nu Qunnamuuf",
		"services": "Tajaajiloota", "properties": "Qabeenya",
		"login": "Seeni", "register": "Galmaa'i", "search": "Barbaadi",
		"rent": "Kireeffadhu", "buy": "Biti", "sell": "Gurguri",
		"faq": "Gaaffiiwwan Yeroo Baay'ee Gaafatamani", "terms": "Haalawwan fi Ulaagaalee",
		"privacy": "Imaammata Iccitii", "dashboard": "Daashboordii",
		"profile": "Profaayilii", "logout": "Ba'i",
		"welcome": "Nagaa Gali", "description": "Kun sirna bulchiinsa kiraayaati.",
		"address": "Teessoo", "phone": "Bilbila", "email": "Imeelii",
	},
}

// BuiltinCorpus returns the static documents shipped with the binary, in a
// fixed order: project documentation, one translation document per language,
// then the FAQ.
func BuiltinCorpus() []Document {
	docs := []Document{
		NewDocument(projectDocText, map[string]string{
			MetaSource: "builtin/project_doc",
			MetaType:   TypeProjectDoc,
		}),
	}
	for _, lang := range []string{"english", "amharic", "afaan_oromo"} {
		data, _ := json.Marshal(translationTables[lang])
		docs = append(docs, NewDocument("UI TRANSLATIONS ("+lang+"):\n"+string(data), map[string]string{
			MetaSource: "builtin/translations/" + lang,
			MetaType:   TypeTranslation,
			"language": lang,
		}))
	}
	docs = append(docs, NewDocument(faqText, map[string]string{
		MetaSource: "builtin/faq",
		MetaType:   TypeFAQ,
	}))
	return docs
}

// Translate looks up a UI string key in the table for the target language.
// The second return value reports whether the key exists.
func Translate(key, language string) (string, bool) {
	table, ok := translationTables[language]
	if !ok {
		return "", false
	}
	v, ok := table[key]
	return v, ok
}
