package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE collections (
				tenant_id VARCHAR(255) NOT NULL,
				id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				PRIMARY KEY (tenant_id, id),
				UNIQUE (tenant_id, name)
			);

			CREATE TABLE workflow_rules (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				collection_id VARCHAR(255) NOT NULL,
				collection_name VARCHAR(255) NOT NULL DEFAULT '',
				name VARCHAR(255) NOT NULL,
				trigger_type VARCHAR(50) NOT NULL,
				filter_formula TEXT NOT NULL DEFAULT '',
				trigger_fields TEXT NOT NULL DEFAULT '[]',
				execution_order INT NOT NULL DEFAULT 0,
				error_handling VARCHAR(50) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT true,
				cron_expression VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_workflow_rules_lookup ON workflow_rules(tenant_id, collection_id, trigger_type, active);
			CREATE INDEX idx_workflow_rules_trigger ON workflow_rules(trigger_type, active);

			CREATE TABLE workflow_actions (
				id VARCHAR(255) PRIMARY KEY,
				rule_id VARCHAR(255) NOT NULL REFERENCES workflow_rules(id) ON DELETE CASCADE,
				action_type VARCHAR(255) NOT NULL,
				config TEXT NOT NULL DEFAULT '{}',
				execution_order INT NOT NULL DEFAULT 0,
				active BOOLEAN NOT NULL DEFAULT true,
				retry_count INT NOT NULL DEFAULT 0 CHECK (retry_count >= 0),
				retry_delay_seconds INT NOT NULL DEFAULT 1 CHECK (retry_delay_seconds >= 1),
				retry_backoff VARCHAR(20) NOT NULL DEFAULT 'FIXED'
			);

			CREATE INDEX idx_workflow_actions_rule_id ON workflow_actions(rule_id);
		`,
		2: `
			CREATE TABLE workflow_execution_logs (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				rule_id VARCHAR(255) NOT NULL,
				record_id VARCHAR(255),
				trigger_type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				actions_executed INT NOT NULL DEFAULT 0,
				error_message TEXT,
				duration_ms BIGINT NOT NULL DEFAULT 0,
				executed_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_execution_logs_rule ON workflow_execution_logs(rule_id, executed_at DESC);

			CREATE TABLE workflow_action_logs (
				id VARCHAR(255) PRIMARY KEY,
				execution_log_id VARCHAR(255) NOT NULL REFERENCES workflow_execution_logs(id) ON DELETE CASCADE,
				action_id VARCHAR(255) NOT NULL,
				action_type VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				error_message TEXT,
				duration_ms BIGINT NOT NULL DEFAULT 0,
				attempt_number INT NOT NULL,
				input_snapshot TEXT NOT NULL DEFAULT '',
				output_snapshot TEXT,
				executed_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_action_logs_execution ON workflow_action_logs(execution_log_id);
		`,
		3: `
			CREATE TABLE action_types (
				key VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				handler_name VARCHAR(255) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT true
			);
		`,
	}
}
