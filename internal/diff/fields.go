package diff

import "chenil/internal/models"

// Tracked-field tables, one per entity kind, in display order. Labels match
// the public site's French wording.

// DogFields lists the tracked fields of a directory entry.
var DogFields = []FieldDef{
	{Name: "name", Label: "Nom", Kind: models.FieldText},
	{Name: "sex", Label: "Sexe", Kind: models.FieldEnum, Labels: map[string]string{
		"m": "Mâle",
		"f": "Femelle",
	}},
	{Name: "birthday", Label: "Date de naissance", Kind: models.FieldDate},
	{Name: "breed", Label: "Race", Kind: models.FieldText},
	{Name: "coat", Label: "Robe", Kind: models.FieldText},
	{Name: "owner", Label: "Maître", Kind: models.FieldRelation},
}

// OwnerFields lists the tracked fields of an owner record.
var OwnerFields = []FieldDef{
	{Name: "name", Label: "Nom", Kind: models.FieldText},
	{Name: "email", Label: "E-mail", Kind: models.FieldText},
	{Name: "phone", Label: "Téléphone", Kind: models.FieldText},
	{Name: "city", Label: "Ville", Kind: models.FieldText},
}

// MediaFields lists the tracked fields of an uploaded file.
var MediaFields = []FieldDef{
	{Name: "kind", Label: "Type", Kind: models.FieldEnum, Labels: map[string]string{
		"photo": "Photo",
		"video": "Vidéo",
	}},
	{Name: "caption", Label: "Légende", Kind: models.FieldText},
	{Name: "featured", Label: "À la une", Kind: models.FieldBoolean},
	{Name: "status", Label: "Statut", Kind: models.FieldEnum, Labels: map[string]string{
		"pending":  "En attente",
		"approved": "Publié",
		"rejected": "Refusé",
	}},
}

// DogSnapshot captures a dog's tracked fields.
func DogSnapshot(d *models.Dog) Snapshot {
	s := Snapshot{
		"name":  String(d.Name),
		"sex":   String(string(d.Sex)),
		"breed": String(d.Breed),
		"coat":  String(d.Coat),
		"owner": Relation(d.OwnerID, d.Owner.Name),
	}
	if d.Birthday != nil {
		s["birthday"] = Date(*d.Birthday)
	}
	return s
}

// OwnerSnapshot captures an owner's tracked fields.
func OwnerSnapshot(o *models.Owner) Snapshot {
	return Snapshot{
		"name":  String(o.Name),
		"email": String(o.Email),
		"phone": String(o.Phone),
		"city":  String(o.City),
	}
}

// MediaSnapshot captures a media's tracked fields.
func MediaSnapshot(m *models.Media) Snapshot {
	return Snapshot{
		"kind":     String(string(m.Kind)),
		"caption":  String(m.Caption),
		"featured": Bool(m.Featured),
		"status":   String(string(m.Status)),
	}
}
