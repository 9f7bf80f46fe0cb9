package model

// Models lists every table owned by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&Role{},
		&Patient{},
		&Diagnosis{},
		&Treatment{},
		&FollowUp{},
		&Appointment{},
		&SecurityLog{},
	}
}
