package args

// legacyArgs mirrors an args file written before args_version existed: it
// lacks normalization_factor, aggregation_method and distill.
func legacyArgs() map[string]any {
	return map[string]any{
		"dataset":             "qm9_second_half",
		"conditioning":        []any{"alpha"},
		"include_charges":     true,
		"latent_nf":           1,
		"nf":                  256,
		"n_layers":            9,
		"attention":           true,
		"tanh":                true,
		"model":               "egnn_dynamics",
		"norm_constant":       1.0,
		"inv_sublayers":       1,
		"sin_embedding":       false,
		"kl_weight":           0.01,
		"normalize_factors":   []any{1.0, 4.0, 10.0},
		"probabilistic_model": "goat",
		"vae_path":            nil,
		"condition_time":      true,
		"diffusion_steps":     1000,
		"diffusion_loss_type": "l2",
		"discrete_path":       "OT_path",
		"trainable_ae":        false,
		"lr":                  1e-4,
		"exp_name":            "exp_cond_alpha",
		"batch_size":          64,
	}
}

// currentArgs is legacyArgs upgraded to CurrentVersion.
func currentArgs() map[string]any {
	m := legacyArgs()
	m["args_version"] = CurrentVersion
	m["normalization_factor"] = 1.0
	m["aggregation_method"] = "sum"
	m["distill"] = false
	return m
}

//Personal.AI order the ending
